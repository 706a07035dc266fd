// Command index is a local stand-in for the remote video index. It serves
// the object endpoint from embedded documents.
package main

import (
	_ "embed"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

//go:embed data.json
var jsonData []byte

const objectPrefix = "/1/indexes/"

func main() {
	docs := make(map[string]string)
	gjson.GetBytes(jsonData, "videos").ForEach(func(_, v gjson.Result) bool {
		docs[v.Get("objectID").String()] = v.Raw

		return true
	})

	http.HandleFunc(objectPrefix, func(w http.ResponseWriter, r *http.Request) {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+time.Now().UnixNano()%150) * time.Millisecond)

		// /1/indexes/{index}/{objectID}
		parts := strings.SplitN(strings.TrimPrefix(r.URL.Path, objectPrefix), "/", 2)
		if len(parts) != 2 || parts[1] == "" {
			http.Error(w, `{"message":"Not found","status":404}`, http.StatusNotFound)

			return
		}

		w.Header().Set("Content-Type", "application/json")

		doc, ok := docs[parts[1]]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"ObjectID does not exist","status":404}`))
			log.Printf("[Index] %s %s - 404", r.Method, r.URL.Path)

			return
		}

		if _, err := w.Write([]byte(doc)); err != nil {
			log.Printf("[Index] Write error: %v", err)
		}
		log.Printf("[Index] %s %s - 200 OK", r.Method, r.URL.Path)
	})

	http.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"healthy"}`)); err != nil {
			log.Printf("[Index] Health write error: %v", err)
		}
	})

	addr := ":8081"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}

	log.Printf("Mock video index running on %s with %d videos", addr, len(docs))
	server := &http.Server{
		Addr:         addr,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

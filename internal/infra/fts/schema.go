package fts

const schema = `
CREATE TABLE videos (
    rowid          INTEGER PRIMARY KEY,
    object_id      TEXT NOT NULL,
    speaker        TEXT NOT NULL DEFAULT '',
    channel        TEXT NOT NULL DEFAULT '',
    satisfaction   REAL NOT NULL DEFAULT 0,
    recording_date INTEGER NOT NULL DEFAULT 0,
    duration       INTEGER NOT NULL DEFAULT 0,
    views          INTEGER NOT NULL DEFAULT 0,
    doc            TEXT NOT NULL
);
CREATE INDEX idx_videos_speaker ON videos(speaker);
CREATE INDEX idx_videos_channel ON videos(channel);

CREATE TABLE video_tags (
    video_rowid INTEGER NOT NULL REFERENCES videos(rowid),
    tag         TEXT NOT NULL
);
CREATE INDEX idx_video_tags_tag ON video_tags(tag, video_rowid);

CREATE VIRTUAL TABLE videos_fts USING fts5(
    title,
    description,
    speaker,
    channel,
    tags,
    tokenize='unicode61 remove_diacritics 2'
);
`

const insertVideo = `
INSERT INTO videos (rowid, object_id, speaker, channel, satisfaction, recording_date, duration, views, doc)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const insertTag = `INSERT INTO video_tags (video_rowid, tag) VALUES (?, ?)`

const insertFTS = `
INSERT INTO videos_fts (rowid, title, description, speaker, channel, tags)
VALUES (?, ?, ?, ?, ?, ?)`

const (
	tagFacets = `
SELECT tag, COUNT(*) AS n FROM video_tags
GROUP BY tag ORDER BY n DESC, tag LIMIT ?`

	channelFacets = `
SELECT channel, COUNT(*) AS n FROM videos WHERE channel <> ''
GROUP BY channel ORDER BY n DESC, channel LIMIT ?`

	speakerFacets = `
SELECT speaker, COUNT(*) AS n FROM videos WHERE speaker <> ''
GROUP BY speaker ORDER BY n DESC, speaker LIMIT ?`
)

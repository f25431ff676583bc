package models

import "time"

// Video is a past stream or upload shown in the dashboard history.
type Video struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	ThumbnailURL string    `json:"thumbnail_url"`
	VideoURL     string    `json:"video_url"`
	StreamedAt   time.Time `json:"streamed_at"`
}

// LiveStream is the result of a successful "go live" request: a YouTube
// broadcast bound to an ingestion stream.
//
// JSON example:
//
//	{
//	  "broadcast_id": "dQw4w9WgXcQ",
//	  "stream_id": "abc123",
//	  "stream_url": "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
//	  "ingestion_address": "rtmp://a.rtmp.youtube.com/live2",
//	  "stream_key": "xxxx-xxxx-xxxx-xxxx",
//	  "scheduled_at": "2024-05-10T18:30:00Z"
//	}
type LiveStream struct {
	BroadcastID      string    `json:"broadcast_id"`
	StreamID         string    `json:"stream_id"`
	WatchURL         string    `json:"stream_url"`
	IngestionAddress string    `json:"ingestion_address,omitempty"`
	StreamKey        string    `json:"stream_key,omitempty"`
	ScheduledAt      time.Time `json:"scheduled_at"`
}

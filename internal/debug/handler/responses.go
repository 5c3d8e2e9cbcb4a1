package handler

import (
	"pawty/internal/debug"
	"pawty/internal/telemetry/models"
)

type EntryResponse struct {
	Name      string        `json:"name"`
	Params    models.Params `json:"params"`
	Timestamp int64         `json:"timestamp"`
	Bucket    models.Bucket `json:"bucket"`
}

type LogResponse struct {
	Open    bool            `json:"open"`
	Count   int             `json:"count"`
	Entries []EntryResponse `json:"entries"`
}

func toLogResponse(open bool, entries []debug.Entry) LogResponse {
	out := LogResponse{Open: open, Count: len(entries), Entries: make([]EntryResponse, 0, len(entries))}
	for _, e := range entries {
		out.Entries = append(out.Entries, EntryResponse{
			Name:      e.Event.Name,
			Params:    e.Event.Params,
			Timestamp: e.Event.Timestamp,
			Bucket:    e.Bucket,
		})
	}
	return out
}

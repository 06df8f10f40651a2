// Package mediastore exposes the audio library scanner on the media_store channel.
package mediastore

import (
	"context"
	"errors"

	"github.com/justestif/mediastore/internal/channel"
	"github.com/justestif/mediastore/internal/scanner"
)

const (
	// ChannelName is the channel the UI layer calls.
	ChannelName = "media_store"

	// MethodGetAudioFiles lists the eligible audio tracks.
	MethodGetAudioFiles = "getAudioFiles"

	// CodeIndexUnavailable reports a media index that could not be queried.
	CodeIndexUnavailable = "INDEX_UNAVAILABLE"
)

// AudioScanner abstracts the scanner for testing.
type AudioScanner interface {
	ScanAudioFiles(ctx context.Context) ([]scanner.TrackDescriptor, error)
}

// NewChannel returns the media_store channel backed by s.
func NewChannel(s AudioScanner) *channel.Channel {
	c := channel.New(ChannelName)
	c.Handle(MethodGetAudioFiles, func(ctx context.Context, _ channel.MethodCall) (any, error) {
		tracks, err := s.ScanAudioFiles(ctx)
		if err != nil {
			code := channel.CodeInternal
			if errors.Is(err, scanner.ErrIndexUnavailable) {
				code = CodeIndexUnavailable
			}
			return nil, &channel.CallError{Code: code, Message: err.Error()}
		}
		return Encode(tracks), nil
	})
	return c
}

// Encode converts descriptors to the wire shape: one map per track with
// exactly the keys path, title and album.
func Encode(tracks []scanner.TrackDescriptor) []map[string]string {
	out := make([]map[string]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, map[string]string{
			"path":  t.Path,
			"title": t.Title,
			"album": t.Album,
		})
	}
	return out
}

package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/lrcx/internal/models"
	"github.com/desertthunder/lrcx/internal/shared"
	"github.com/desertthunder/lrcx/internal/textenc"
	"github.com/desertthunder/lrcx/internal/ttplayer"
	"github.com/urfave/cli/v3"
)

// DebugHex prints both hex encodings of the given text.
func (r *Runner) DebugHex(ctx context.Context, cmd *cli.Command) error {
	text := cmd.StringArg("text")
	if text == "" {
		return fmt.Errorf("%w: text is required", shared.ErrMissingArgument)
	}
	r.writePlain("utf-8:    %s\n", textenc.UTF8Hex(text))
	r.writePlain("utf-16le: %s\n", textenc.UTF16LEHex(text))
	r.writePlain("keywords: %s\n", ttplayer.ProcessKeywords(text))
	return nil
}

// DebugToken prints the retrieval token for a candidate, and its URL when --host is given.
func (r *Runner) DebugToken(ctx context.Context, cmd *cli.Command) error {
	c := models.Candidate{
		Artist: cmd.String("artist"),
		Title:  cmd.String("title"),
		ID:     cmd.Int64("id"),
	}
	token := ttplayer.CandidateToken(c)
	r.writePlain("%s\n", token)
	if host := cmd.String("host"); host != "" {
		r.writePlain("%s\n", ttplayer.RetrievalURL(host, c.WireID(), token))
	}
	return nil
}

// DebugURL prints the discovery URL for a song on every configured mirror.
func (r *Runner) DebugURL(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{Artist: cmd.String("artist"), Title: cmd.String("title")}
	for _, host := range r.conf().Provider.Mirrors {
		r.writePlain("%s\n", ttplayer.DiscoveryURL(host, song))
	}
	return nil
}

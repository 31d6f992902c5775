// Copyright 2019 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package sync pulls the messages of a logbook into the local archive.
//
// A pull has two phases.  The list phase searches the messages dated
// from the watermark of the last pull, saves them and moves the
// watermark to the newest message date seen.  The download phase fetches
// the attachments of every archived message that has attachments not yet
// downloaded.
package sync

import (
	"context"
	"net/http"
	"time"

	"github.com/matta/elisa/internal/apierr"
	"github.com/matta/elisa/internal/attachstore"
	"github.com/matta/elisa/internal/message"
	"github.com/matta/elisa/internal/persist"
	"github.com/matta/elisa/internal/search"
	"github.com/matta/elisa/internal/xmlcodec"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SearchDateLayout is the date format of the from and to search criteria.
const SearchDateLayout = "02/01/2006 15:04:05"

// Options tune a pull.
type Options struct {
	// Logbook names the watermark to use.
	Logbook string

	// Months is the search interval of the first pull of a logbook.
	// Zero leaves the interval to the server.
	Months int

	// Limit caps the messages listed per pull.  Zero means 1000.
	Limit int

	// Concurrency is the number of messages whose attachments are
	// downloaded in parallel.  Zero means 4.
	Concurrency int

	Log *zap.SugaredLogger
}

// Stats counts what a pull saved.
type Stats struct {
	Messages    int
	Attachments int
}

type puller struct {
	opts  Options
	g     MessageStorage
	db    *persist.DB
	store *attachstore.Service
	codec *xmlcodec.Codec
	log   *zap.SugaredLogger
}

func listCriteria(since time.Time, opts Options) *search.Criteria {
	c := search.New()
	c.SetLimit(opts.Limit)
	if since.IsZero() {
		if opts.Months > 0 {
			c.SetInterval(opts.Months)
		}
	} else {
		c.SetSince(since.Format(SearchDateLayout))
	}
	return c
}

// newestDate returns the latest of since and the dates of msgs.
func (p *puller) newestDate(since time.Time, msgs []*message.Read) time.Time {
	newest := since
	for _, m := range msgs {
		d, err := time.Parse(time.RFC3339, m.Date())
		if err != nil {
			p.log.Warnw("message date not understood", "id", m.ID(), "date", m.Date())
			continue
		}
		if d.After(newest) {
			newest = d
		}
	}
	return newest
}

func (p *puller) pullList(ctx context.Context, stats *Stats) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	since, err := tx.Watermark(ctx, p.opts.Logbook)
	if err != nil {
		return err
	}
	if since.IsZero() {
		p.log.Infow("complete pull", "logbook", p.opts.Logbook, "months", p.opts.Months)
	} else {
		p.log.Infow("incremental pull", "logbook", p.opts.Logbook, "since", since)
	}

	msgs, err := p.g.Search(ctx, listCriteria(since, p.opts))
	if err != nil {
		return errors.Wrap(err, "unable to list messages")
	}
	if len(msgs) >= p.opts.Limit {
		p.log.Warnw("pull hit the message limit, pull again to continue", "limit", p.opts.Limit)
	}
	for _, m := range msgs {
		doc, err := p.codec.Encode(m, xmlcodec.MessageRoot)
		if err != nil {
			return errors.Wrapf(err, "encoding message %s", m.ID())
		}
		if err := tx.SaveMessage(ctx, m, doc); err != nil {
			return err
		}
	}
	stats.Messages = len(msgs)

	if newest := p.newestDate(since, msgs); newest.After(since) {
		if err := tx.WriteWatermark(ctx, p.opts.Logbook, newest); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// downloaded holds the attachments written for one message.
type downloaded struct {
	msgID string
	atts  []persist.Attachment
}

func (p *puller) pullDownload(ctx context.Context, stats *Stats) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var pending []string
	err = tx.ListPendingAttachments(ctx, func(id string) error {
		pending = append(pending, id)
		return nil
	})
	if err != nil {
		return err
	}
	p.log.Infow("downloading attachments", "messages", len(pending))

	grp, ctx := errgroup.WithContext(ctx)
	ids := make(chan string)
	results := make(chan downloaded)

	grp.Go(func() error {
		defer close(ids)
		for _, id := range pending {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case ids <- id:
			}
		}
		return nil
	})

	workers, wctx := errgroup.WithContext(ctx)
	for i := 0; i < p.opts.Concurrency; i++ {
		workers.Go(func() error {
			for id := range ids {
				d, err := p.download(wctx, id)
				if err != nil {
					return err
				}
				select {
				case <-wctx.Done():
					return wctx.Err()
				case results <- d:
				}
			}
			return nil
		})
	}
	grp.Go(func() error {
		defer close(results)
		return workers.Wait()
	})

	// Only this goroutine uses tx while the workers run.
	grp.Go(func() error {
		for d := range results {
			if err := tx.SaveAttachments(ctx, d.msgID, d.atts); err != nil {
				return err
			}
			stats.Attachments += len(d.atts)
		}
		return nil
	})

	if err := grp.Wait(); err != nil {
		return errors.Wrap(err, "unable to download attachments")
	}
	return tx.Commit()
}

func (p *puller) download(ctx context.Context, id string) (downloaded, error) {
	d := downloaded{msgID: id}
	m, err := p.g.Message(ctx, id)
	if err != nil {
		// A message removed since it was listed has nothing left to
		// download.
		if apierr.IsStatus(err, http.StatusNotFound) {
			p.log.Warnw("archived message is gone from the server", "id", id)
			return d, nil
		}
		return d, errors.Wrapf(err, "failed getting message %s", id)
	}
	for _, a := range m.Attachments() {
		k := attachstore.Key{MessageID: id, AttachmentID: a.ID, Filename: a.Filename}
		path := ""
		if !p.store.HaveAttachment(k) {
			content, err := p.g.Attachment(ctx, id, a.ID)
			if err != nil {
				return d, err
			}
			if path, err = p.store.Insert(k, content); err != nil {
				return d, err
			}
			p.log.Debugw("saved attachment", "id", id, "attachment", a.ID, "path", path)
		} else {
			path = p.store.Path(k)
		}
		d.atts = append(d.atts, persist.Attachment{
			MessageID:    id,
			AttachmentID: a.ID,
			Filename:     a.Filename,
			Path:         path,
		})
	}
	return d, nil
}

// Sync pulls the messages of a logbook into db and their attachments
// into store.
func Sync(ctx context.Context, g MessageStorage, db *persist.DB, store *attachstore.Service, opts Options) (*Stats, error) {
	if opts.Limit <= 0 {
		opts.Limit = 1000
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	p := &puller{
		opts:  opts,
		g:     g,
		db:    db,
		store: store,
		codec: xmlcodec.New(log),
		log:   log,
	}

	stats := &Stats{}
	if err := p.pullList(ctx, stats); err != nil {
		return stats, errors.Wrap(err, "failed to sync")
	}
	if err := p.pullDownload(ctx, stats); err != nil {
		return stats, errors.Wrap(err, "failed to sync")
	}
	return stats, nil
}

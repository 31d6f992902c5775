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

// Package persist keeps a local SQLite archive of logbook messages.
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/matta/elisa/internal/message"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	// Registers the "sqlite3" driver.
	_ "github.com/mattn/go-sqlite3"
)

var (
	createTableSql = []string{
		// The elisa_messages table holds the last fetched state of each
		// message.
		//
		// Field: message_id
		//
		//   The message "id" element.  Ids are decimal integers but are
		//   kept as text, the way the server sends them.
		//
		// Field: document
		//
		//   The message re-encoded as a <message> document, without its
		//   attachments.
		//
		// Field: attachments_fetched
		//
		//   If NULL and has_attachments is "1", the attachments of the
		//   message have not been downloaded since it was last saved.
		//   Saving a message always sets it NULL.
		`
CREATE TABLE IF NOT EXISTS elisa_messages (
message_id TEXT NOT NULL PRIMARY KEY,
logbook TEXT NOT NULL,
thread_head TEXT NOT NULL,
date TEXT NOT NULL,
author TEXT NOT NULL,
subject TEXT NOT NULL,
message_type TEXT NOT NULL,
status TEXT NOT NULL,
has_attachments TEXT NOT NULL,
document BLOB NOT NULL,
attachments_fetched INTEGER
);`,
		// The elisa_attachments table records where each downloaded
		// attachment was written.
		`
CREATE TABLE IF NOT EXISTS elisa_attachments (
message_id TEXT NOT NULL,
attachment_id TEXT NOT NULL,
filename TEXT NOT NULL,
path TEXT NOT NULL,
PRIMARY KEY (message_id, attachment_id)
FOREIGN KEY (message_id) REFERENCES elisa_messages (message_id)
);`,
		// The elisa_watermarks table holds, per logbook, the date of the
		// newest message seen by the last complete pull, in RFC 3339
		// form.  The next pull searches from there.
		`
CREATE TABLE IF NOT EXISTS elisa_watermarks (
logbook TEXT NOT NULL PRIMARY KEY,
date TEXT NOT NULL
);`,
	}
)

type DB struct {
	db  *sql.DB
	log *zap.SugaredLogger
}

type Tx struct {
	tx *sql.Tx
}

func dsnFromPath(path string, addValues url.Values) (string, error) {
	var u *url.URL
	if !strings.HasPrefix(path, "file:") {
		u = &url.URL{Scheme: "file", Path: path}
	} else {
		var err error
		u, err = url.Parse(path)
		if err != nil {
			return "", err
		}
	}
	values := u.Query()
	for k, v := range addValues {
		for _, item := range v {
			values.Add(k, item)
		}
	}
	u.RawQuery = values.Encode()
	return u.String(), nil
}

// Open opens, creating it if needed, the archive at path.  path is a file
// name or a "file:" URI.
func Open(ctx context.Context, path string, log *zap.SugaredLogger) (*DB, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	// The _busy_timeout is a SQLite extension that controls how
	// long SQLite will poll before giving up.  A pull holds a write
	// transaction while it downloads, so go with 5 minutes.
	var busyTimeout = int(5*time.Minute) / int(time.Millisecond)

	dsn, err := dsnFromPath(path, url.Values{
		"_busy_timeout": {fmt.Sprintf("%d", busyTimeout)}})
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not form a DB DSN from "+
				"the given path",
			path)
	}
	log.Debugw("opening archive", "dsn", dsn)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not open database at %q",
			path, dsn)
	}

	if err = initSchema(ctx, db, log); err != nil {
		db.Close()
		return nil, errors.Wrapf(err,
			"Open(%q) failed: could not initialize the "+
				"database schema", path)
	}

	return &DB{db: db, log: log}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

func (db *DB) Begin(ctx context.Context) (*Tx, error) {
	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin transaction failed")
	}
	return &Tx{tx}, nil
}

func (tx *Tx) Commit() error {
	return tx.tx.Commit()
}

func (tx *Tx) Rollback() error {
	return tx.tx.Rollback()
}

func initSchema(ctx context.Context, db *sql.DB, log *zap.SugaredLogger) error {
	for _, sql := range createTableSql {
		log.Debugw("sql exec", "sql", sql)
		if _, err := db.ExecContext(ctx, sql); err != nil {
			return errors.Wrapf(err, "while executing %q", sql)
		}
	}

	return nil
}

// SaveMessage inserts or replaces m.  document is m encoded as a
// <message> document.
func (tx *Tx) SaveMessage(ctx context.Context, m *message.Read, document []byte) error {
	if m.ID() == "" {
		return errors.New("cannot archive a message without an id")
	}
	const sql = `INSERT INTO elisa_messages
		(message_id, logbook, thread_head, date, author, subject,
		 message_type, status, has_attachments, document)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (message_id)
		DO UPDATE SET (logbook, thread_head, date, author, subject,
		 message_type, status, has_attachments, document,
		 attachments_fetched) = ($2, $3, $4, $5, $6, $7, $8, $9, $10, NULL)`
	_, err := tx.tx.ExecContext(ctx, sql, m.ID(), m.Logbook(), m.ThreadHead(),
		m.Date(), m.Author(), m.Subject(), m.Type(), string(m.Status()),
		m.HasAttachments(), document)
	if err != nil {
		return errors.Wrapf(err, "db upsert of message %s failed", m.ID())
	}
	return nil
}

// Document returns the archived document of a message.  ok is false when
// the message is not archived.
func (tx *Tx) Document(ctx context.Context, id string) (document []byte, ok bool, err error) {
	const q = `SELECT document FROM elisa_messages WHERE message_id = $1`
	err = tx.tx.QueryRowContext(ctx, q, id).Scan(&document)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "reading message %s", id)
	}
	return document, true, nil
}

// ListPendingAttachments calls handler with the id of every message whose
// attachments have not been downloaded, lowest id first.
func (tx *Tx) ListPendingAttachments(ctx context.Context, handler func(id string) error) error {
	const sql = `
SELECT message_id
FROM elisa_messages
WHERE has_attachments = '1' AND attachments_fetched IS NULL
ORDER BY CAST(message_id AS INTEGER)
`
	rows, err := tx.tx.QueryContext(ctx, sql)
	if err != nil {
		return errors.Wrap(err, "db query failed in ListPendingAttachments")
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return errors.Wrap(err, "db scan failed in ListPendingAttachments")
		}
		if err := handler(id); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Attachment is a downloaded attachment of an archived message.
type Attachment struct {
	MessageID    string
	AttachmentID string
	Filename     string
	Path         string
}

// SaveAttachments records the downloaded attachments of a message and
// marks its attachments fetched.
func (tx *Tx) SaveAttachments(ctx context.Context, msgID string, atts []Attachment) error {
	sql := `INSERT OR REPLACE INTO elisa_attachments
		(message_id, attachment_id, filename, path) VALUES ($1, $2, $3, $4)`
	insert, err := tx.tx.PrepareContext(ctx, sql)
	if err != nil {
		return errors.Wrap(err, "db prepare statement failed for attachment insert")
	}
	defer insert.Close()

	for _, a := range atts {
		if _, err := insert.ExecContext(ctx, msgID, a.AttachmentID, a.Filename, a.Path); err != nil {
			return errors.Wrapf(err, "db insert of attachment %s failed", a.AttachmentID)
		}
	}

	sql = `UPDATE elisa_messages SET attachments_fetched = $1 WHERE message_id = $2`
	if _, err := tx.tx.ExecContext(ctx, sql, time.Now().Unix(), msgID); err != nil {
		return errors.Wrapf(err, "marking attachments of message %s fetched", msgID)
	}
	return nil
}

// Attachments lists the downloaded attachments of a message.
func (tx *Tx) Attachments(ctx context.Context, msgID string) ([]Attachment, error) {
	const q = `SELECT attachment_id, filename, path FROM elisa_attachments
		WHERE message_id = $1 ORDER BY attachment_id`
	rows, err := tx.tx.QueryContext(ctx, q, msgID)
	if err != nil {
		return nil, errors.Wrap(err, "db query failed in Attachments")
	}
	defer rows.Close()

	var out []Attachment
	for rows.Next() {
		a := Attachment{MessageID: msgID}
		if err := rows.Scan(&a.AttachmentID, &a.Filename, &a.Path); err != nil {
			return nil, errors.Wrap(err, "db scan failed in Attachments")
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Watermark returns the watermark of a logbook, or the zero time when it
// was never pulled.
func (tx *Tx) Watermark(ctx context.Context, logbook string) (time.Time, error) {
	const q = `SELECT date FROM elisa_watermarks WHERE logbook = $1`
	var s string
	if err := tx.tx.QueryRowContext(ctx, q, logbook).Scan(&s); err != nil {
		if err == sql.ErrNoRows {
			err = nil // a non-error
		}
		return time.Time{}, err
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.Wrapf(err, "corrupt watermark of logbook %s", logbook)
	}
	return t, nil
}

// WriteWatermark moves the watermark of a logbook forward to t.
func (tx *Tx) WriteWatermark(ctx context.Context, logbook string, t time.Time) error {
	latest, err := tx.Watermark(ctx, logbook)
	if err != nil {
		return err
	}
	if t.Before(latest) {
		return fmt.Errorf("attempt to move the watermark of %s back from %s to %s",
			logbook, latest.Format(time.RFC3339), t.Format(time.RFC3339))
	}

	sql := `INSERT OR REPLACE INTO elisa_watermarks (logbook, date) VALUES ($1, $2)`
	_, err = tx.tx.ExecContext(ctx, sql, logbook, t.Format(time.RFC3339))
	if err != nil {
		return errors.Wrap(err, "db insert failed")
	}
	return nil
}

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

// Package attachstore writes downloaded attachments to the filesystem.
package attachstore

import (
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	dirFileMode        = 0700
	attachmentFileMode = 0600

	pathFarm16 = "abcdefghijklmnop"
)

// Service stores the attachments of archived messages below a root
// directory, spread over a two level directory farm.
type Service struct {
	path string
}

type path struct {
	root string
	dirs []string
	base string
}

func (p path) Join() string {
	parts := make([]string, 1, len(p.dirs)+2)
	parts[0] = p.root
	parts = append(parts, p.dirs...)
	parts = append(parts, p.base)
	return filepath.Join(parts...)
}

// New returns a store rooted at root, creating the directories it needs.
func New(root string) (*Service, error) {
	if err := os.MkdirAll(filepath.Dir(root), dirFileMode); err != nil {
		return nil, errors.Wrapf(err, "creating %s", filepath.Dir(root))
	}
	if err := mkdirfarm(root, 2); err != nil {
		return nil, errors.Wrapf(err, "creating attachment store at %s", root)
	}
	return &Service{path: root}, nil
}

// Key identifies a stored attachment.
type Key struct {
	MessageID    string
	AttachmentID string
	Filename     string
}

func (s *Service) HaveAttachment(k Key) bool {
	_, err := os.Stat(s.makePath(k).Join())
	return err == nil
}

// Path is where the attachment k is stored.
func (s *Service) Path(k Key) string {
	return s.makePath(k).Join()
}

// Insert writes an attachment and returns the path it was written to.
func (s *Service) Insert(k Key, content []byte) (string, error) {
	if k.MessageID == "" || k.AttachmentID == "" {
		return "", errors.New("attachment has no ID")
	}
	p := s.makePath(k).Join()
	if err := os.WriteFile(p, content, attachmentFileMode); err != nil {
		return "", errors.Wrapf(err, "writing attachment %s of message %s", k.AttachmentID, k.MessageID)
	}
	return p, nil
}

// WriteFile writes content to a file named filename in dir, the way the
// get command saves attachments.  Only the last element of filename is
// used.
func WriteFile(dir, filename string, content []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." {
		return "", errors.Errorf("attachment filename %q is not usable", filename)
	}
	p := filepath.Join(dir, base)
	if err := os.WriteFile(p, content, attachmentFileMode); err != nil {
		return "", errors.Wrapf(err, "writing attachment %s", p)
	}
	return p, nil
}

// Return the specified string with characters that should not appear
// in a stored file name escaped.
func escape(s string) string {
	hexCount := 0
	for i := 0; i < len(s); i++ {
		if shouldEscape(s[i]) {
			hexCount++
		}
	}

	if hexCount == 0 {
		return s
	}

	t := make([]byte, len(s)+2*hexCount)
	j := 0
	for i := 0; i < len(s); i++ {
		switch c := s[i]; {
		case shouldEscape(c):
			t[j] = '='
			t[j+1] = "0123456789ABCDEF"[c>>4]
			t[j+2] = "0123456789ABCDEF"[c&15]
			j += 3
		default:
			t[j] = s[i]
			j++
		}
	}
	return string(t)
}

// Return true if the specified character should be escaped when
// appearing in a stored file name.
//
// Based on the Portable Filename Character Set of IEEE Std 1003.1-2017
// (3.282), keeping the period so that extensions survive.  The equals
// sign introduces a hex encoded byte.
func shouldEscape(c byte) bool {
	if 'A' <= c && c <= 'Z' || 'a' <= c && c <= 'z' || '0' <= c && c <= '9' {
		return false
	}
	if c == '.' || c == '_' {
		return false
	}

	// Everything else must be escaped.
	return true
}

// encode returns the file name of an attachment: the message id, the
// attachment id and the original file name, each escaped, after a
// version prefix.
func (k Key) encode() string {
	var sb strings.Builder
	const prefix = "elisa-1-"
	sb.Grow(len(prefix) + len(k.MessageID) + len(k.AttachmentID) + len(k.Filename) + 2)
	sb.WriteString(prefix)
	sb.WriteString(escape(k.MessageID))
	sb.WriteRune('-')
	sb.WriteString(escape(k.AttachmentID))
	sb.WriteRune('-')
	sb.WriteString(escape(k.Filename))
	return sb.String()
}

func mkdir(dir string) error {
	if err := os.Mkdir(dir, dirFileMode); err != nil && !os.IsExist(err) {
		return err
	}
	return nil
}

func mkdirfarm(path string, depth int) error {
	if err := mkdir(path); err != nil {
		return err
	}
	if depth == 0 {
		return nil
	}

	for i := 0; i < len(pathFarm16); i++ {
		path := filepath.Join(path, pathFarm16[i:i+1])
		if err := mkdirfarm(path, depth-1); err != nil {
			return err
		}
	}
	return nil
}

func fingerprint(b []byte) uint32 {
	hash := fnv.New32a()
	hash.Write(b)
	return hash.Sum32()
}

// pathParts spreads attachments by message, so that the attachments of
// one message share a directory.
func pathParts(msgID string) []string {
	fp := fingerprint([]byte(msgID))
	nibble1 := fp & 0xf
	nibble2 := (fp >> 4) & 0xf
	return []string{pathFarm16[nibble1 : nibble1+1], pathFarm16[nibble2 : nibble2+1]}
}

func (s *Service) makePath(k Key) path {
	return path{
		root: s.path,
		dirs: pathParts(k.MessageID),
		base: k.encode(),
	}
}

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

package sync

// This file declares what the pull needs from the logbook server.

import (
	"context"

	"github.com/matta/elisa/internal/message"
	"github.com/matta/elisa/internal/search"
)

// MessageSearcher lists the messages matching a search.
type MessageSearcher interface {
	Search(ctx context.Context, criteria *search.Criteria) ([]*message.Read, error)
}

// MessageGetter gets one message, or one of its attachments.
type MessageGetter interface {
	Message(ctx context.Context, id string) (*message.Read, error)
	Attachment(ctx context.Context, msgID, attachmentID string) ([]byte, error)
}

// MessageStorage provides all the actions the pull uses.  *elisa.Client
// implements it.
type MessageStorage interface {
	MessageSearcher
	MessageGetter
}

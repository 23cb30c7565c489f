// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"encoding/json"
	"io"
	"sync"

	"github.com/tombee/pieces/internal/trigger"
)

// JSONLinesEmitter writes each event as one JSON line to w.
func JSONLinesEmitter(w io.Writer) trigger.Emitter {
	var mu sync.Mutex
	enc := json.NewEncoder(w)
	return func(_ context.Context, event trigger.Event) error {
		mu.Lock()
		defer mu.Unlock()
		return enc.Encode(event)
	}
}

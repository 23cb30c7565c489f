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

// Package operation provides the shared framework for piece operations.
//
// Every piece exposes its actions through the Provider interface and reports
// failures as *Error. Remote failures are classified by HTTP status into a
// fixed table of messages, so a 404 reads the same whether Aircall or Hunter
// returned it. Vendor-specific error text is kept in Error.Detail.
//
// No operation is retried here. A single failed call surfaces immediately;
// retry policy belongs to whatever invokes the piece.
package operation

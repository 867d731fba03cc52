/*
 * Copyright (c) 2026 Firefly Software Solutions Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package bridge

import (
	"syscall"

	"flyio/internal/vio"
)

// Status is a single-call Reporter. A transport creates one per request,
// runs the entry point, and turns the recorded failure (if any) into its
// own error response. Not safe for concurrent use; one Status per call.
type Status struct {
	err     error
	reports int
}

// ReportIOFailure records an operating-system failure. Only the first
// report sticks.
func (s *Status) ReportIOFailure(op string, errno syscall.Errno) {
	s.reports++
	if s.err == nil {
		s.err = &vio.Error{Op: op, Errno: errno}
	}
}

// ReportFailure records an already-described failure unchanged. Only the
// first report sticks.
func (s *Status) ReportFailure(op string, err error) {
	s.reports++
	if s.err == nil {
		s.err = err
	}
}

// Err returns the recorded failure, or nil.
func (s *Status) Err() error {
	return s.err
}

// Errno returns the recorded platform error code, or 0 when the failure
// did not come from the operating system (or nothing was reported).
func (s *Status) Errno() syscall.Errno {
	if verr, ok := s.err.(*vio.Error); ok {
		return verr.Errno
	}
	return 0
}

// Reports returns how many failures were raised during the call.
func (s *Status) Reports() int {
	return s.reports
}

// Reset clears the Status for reuse on the next call.
func (s *Status) Reset() {
	s.err = nil
	s.reports = 0
}

/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package viewer

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfBounds is returned when a page, scale or tab index is rejected.
	ErrOutOfBounds = errors.New("value out of bounds")
	// ErrNoDocument is returned by actions that need an open document in the active tab.
	ErrNoDocument = errors.New("no document loaded")
	// ErrPhraseNotFound matches any *PhraseNotFoundError.
	ErrPhraseNotFound = errors.New("phrase not found")
	// ErrUnknownAction is returned by Dispatch for actions without a handler.
	ErrUnknownAction = errors.New("unknown action")
)

// PhraseNotFoundError names the query of a failed search.
type PhraseNotFoundError struct {
	Phrase string
}

func (e *PhraseNotFoundError) Error() string {
	return fmt.Sprintf("could not find phrase: %s", e.Phrase)
}

func (e *PhraseNotFoundError) Is(target error) bool { return target == ErrPhraseNotFound }

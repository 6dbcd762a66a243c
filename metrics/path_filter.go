// Copyright 2025 The Vessel Authors
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

package metrics

import (
	"regexp"
	"strings"
)

// pathFilter decides which request paths are excluded from recording.
// It is populated at construction time and read-only afterwards, so
// lookups need no locking.
type pathFilter struct {
	exact    map[string]struct{}
	prefixes []string
	patterns []*regexp.Regexp
}

func newPathFilter() *pathFilter {
	return &pathFilter{exact: make(map[string]struct{})}
}

func (f *pathFilter) addPaths(paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		f.exact[p] = struct{}{}
	}
}

func (f *pathFilter) addPrefixes(prefixes ...string) {
	for _, p := range prefixes {
		if p == "" {
			continue
		}
		f.prefixes = append(f.prefixes, p)
	}
}

func (f *pathFilter) addPatterns(patterns ...*regexp.Regexp) {
	f.patterns = append(f.patterns, patterns...)
}

func (f *pathFilter) shouldExclude(path string) bool {
	if f == nil {
		return false
	}
	if _, ok := f.exact[path]; ok {
		return true
	}
	for _, prefix := range f.prefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	for _, pattern := range f.patterns {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

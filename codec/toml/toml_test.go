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

package toml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vessel-dev/vessel/codec"
)

type settings struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

func TestTOML_Decode(t *testing.T) {
	t.Parallel()

	body := []byte("host = \"localhost\"\nport = 5432\n")

	got, err := TOML[settings](body)
	require.NoError(t, err)
	assert.Equal(t, settings{Host: "localhost", Port: 5432}, got)
}

func TestTOML_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := TOML[settings]([]byte("host = \n"))
	require.Error(t, err)
}

func TestTOMLWithMetadata_ReportsUndecoded(t *testing.T) {
	t.Parallel()

	body := []byte("host = \"localhost\"\nregion = \"eu-west-1\"\n")

	got, meta, err := TOMLWithMetadata[settings](body)
	require.NoError(t, err)
	assert.Equal(t, "localhost", got.Host)
	require.Len(t, meta.Undecoded(), 1)
	assert.Equal(t, "region", meta.Undecoded()[0].String())
}

func TestTOMLTo_Decode(t *testing.T) {
	t.Parallel()

	var got settings
	require.NoError(t, TOMLTo([]byte("host = \"db\"\n"), &got))
	assert.Equal(t, "db", got.Host)
}

func TestNewCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	reg := codec.NewRegistry(NewCodec())

	data, err := reg.Marshal("application/toml", settings{Host: "localhost", Port: 5432})
	require.NoError(t, err)

	var got settings
	require.NoError(t, reg.Unmarshal("application/toml", data, &got))
	assert.Equal(t, settings{Host: "localhost", Port: 5432}, got)
}

func TestNewCodec_UnmarshalToAny(t *testing.T) {
	t.Parallel()

	var v any
	require.NoError(t, NewCodec().Unmarshal([]byte("host = \"localhost\"\n"), &v))

	m, ok := v.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "localhost", m["host"])
}

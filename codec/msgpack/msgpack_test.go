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

package msgpack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vessel-dev/vessel/codec"
)

type message struct {
	ID      int64  `json:"id"`
	Content string `json:"content"`
}

func TestMsgPack_RoundTrip(t *testing.T) {
	t.Parallel()

	data, err := Marshal(message{ID: 7, Content: "hello"})
	require.NoError(t, err)

	got, err := MsgPack[message](data)
	require.NoError(t, err)
	assert.Equal(t, message{ID: 7, Content: "hello"}, got)
}

func TestMsgPack_JSONTagRoundTrip(t *testing.T) {
	t.Parallel()

	data, err := Marshal(message{ID: 7, Content: "hello"}, WithJSONTag())
	require.NoError(t, err)

	// With the json tag the wire keys are "id" and "content"; decoding into
	// a map exposes them. Small ints come back as the narrowest type, so
	// compare values rather than types.
	raw, err := MsgPack[map[string]any](data)
	require.NoError(t, err)
	assert.EqualValues(t, 7, raw["id"])
	assert.Equal(t, "hello", raw["content"])

	got, err := MsgPack[message](data, WithJSONTag())
	require.NoError(t, err)
	assert.Equal(t, message{ID: 7, Content: "hello"}, got)
}

func TestMsgPack_MapRoundTrip(t *testing.T) {
	t.Parallel()

	in := map[string]any{"name": "gopher", "count": int64(3)}

	data, err := Marshal(in)
	require.NoError(t, err)

	got, err := MsgPack[map[string]any](data)
	require.NoError(t, err)
	assert.Equal(t, "gopher", got["name"])
	assert.EqualValues(t, 3, got["count"])
}

func TestMsgPack_DisallowUnknown(t *testing.T) {
	t.Parallel()

	data, err := Marshal(map[string]any{"id": 1, "content": "x", "extra": true}, WithJSONTag())
	require.NoError(t, err)

	_, err = MsgPack[message](data, WithJSONTag())
	require.NoError(t, err)

	_, err = MsgPack[message](data, WithJSONTag(), WithDisallowUnknown())
	require.Error(t, err)
}

func TestMsgPackTo_Decode(t *testing.T) {
	t.Parallel()

	data, err := Marshal(message{ID: 1, Content: "x"})
	require.NoError(t, err)

	var got message
	require.NoError(t, MsgPackTo(data, &got))
	assert.Equal(t, int64(1), got.ID)
}

func TestNewCodec_RegistryDispatch(t *testing.T) {
	t.Parallel()

	reg := codec.NewRegistry(NewCodec(WithJSONTag()))

	data, err := reg.Marshal("application/msgpack", message{ID: 9, Content: "via registry"})
	require.NoError(t, err)

	var got message
	require.NoError(t, reg.Unmarshal("application/msgpack", data, &got))
	assert.Equal(t, message{ID: 9, Content: "via registry"}, got)
}

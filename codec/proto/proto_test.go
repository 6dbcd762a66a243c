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

package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/vessel-dev/vessel/codec"
)

func TestProto_RoundTrip(t *testing.T) {
	t.Parallel()

	msg, err := structpb.NewStruct(map[string]any{
		"name":  "gopher",
		"count": 3,
	})
	require.NoError(t, err)

	data, err := Marshal(msg)
	require.NoError(t, err)

	got, err := Proto[*structpb.Struct](data)
	require.NoError(t, err)
	assert.Equal(t, "gopher", got.AsMap()["name"])
	assert.Equal(t, float64(3), got.AsMap()["count"])
}

func TestProto_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Proto[*structpb.Struct]([]byte{0xff, 0xff, 0xff})
	require.Error(t, err)
}

func TestProtoTo_Decode(t *testing.T) {
	t.Parallel()

	data, err := Marshal(wrapperspb.String("hello"))
	require.NoError(t, err)

	var got wrapperspb.StringValue
	require.NoError(t, ProtoTo(data, &got))
	assert.Equal(t, "hello", got.GetValue())
}

func TestNewCodec_RegistryDispatch(t *testing.T) {
	t.Parallel()

	reg := codec.NewRegistry(NewCodec())

	data, err := reg.Marshal("application/x-protobuf", wrapperspb.Int64(42))
	require.NoError(t, err)

	var got wrapperspb.Int64Value
	require.NoError(t, reg.Unmarshal("application/x-protobuf", data, &got))
	assert.Equal(t, int64(42), got.GetValue())
}

func TestNewCodec_RejectsNonMessage(t *testing.T) {
	t.Parallel()

	c := NewCodec()

	_, err := c.Marshal(map[string]string{"not": "a message"})
	require.ErrorIs(t, err, ErrNotProtoMessage)

	var v map[string]string
	err = c.Unmarshal([]byte{}, &v)
	require.ErrorIs(t, err, ErrNotProtoMessage)
}

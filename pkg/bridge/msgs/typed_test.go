package msgs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTypedKinds(t *testing.T) {
	testCases := []struct {
		name    string
		typeID  uint32
		command bool
		reply   bool
	}{
		{"ok", CommandOKTypeID, true, true},
		{"err", CommandErrTypeID, true, true},
		{"outputs", OutputsTypeID, true, false},
		{"register request", RegisterRequestTypeID, true, false},
		{"inputs", InputsTypeID, false, false},
		{"register state", RegisterStateTypeID, false, false},
		{"fieldbus", FieldbusBlockTypeID, false, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			typed := &Typed{TypeID: tc.typeID}
			require.Equal(t, tc.command, typed.IsCommand())
			require.Equal(t, !tc.command, typed.IsEvent())
			require.Equal(t, tc.reply, typed.IsReply())
			require.Contains(t, MessageTypes, tc.typeID)
			require.Equal(t, tc.typeID, MessageTypes[tc.typeID].NewMessage().(SerializableMessage).TypeID())
		})
	}
}

func TestTypedEnvelope(t *testing.T) {
	in := &Inputs{Din: 0x5, Counters: []uint32{1, 2, 3}, Ain: []uint32{4095, 0}, Cycles: 1000}
	typed, err := TypedFrom(in)
	require.NoError(t, err)
	typed.Sequence = 7
	pkt, err := typed.Encode()
	require.NoError(t, err)

	decoded, err := DecodeTyped(pkt)
	require.NoError(t, err)
	require.Equal(t, InputsTypeID, decoded.TypeID)
	require.Equal(t, uint32(7), decoded.Sequence)
	msg, err := decoded.Decode()
	require.NoError(t, err)
	require.Equal(t, in, msg)
}

func TestTypedErrors(t *testing.T) {
	_, err := (&Typed{TypeID: 0x7FFF0000}).Decode()
	var unknown *ErrUnknownType
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, uint32(0x7FFF0000), unknown.TypeID)

	_, err = TypedFrom(nil)
	require.Equal(t, ErrNotSerializable, err)

	cmdErr := NewCommandErr(errors.New("table full"))
	require.EqualError(t, cmdErr, "table full")
}

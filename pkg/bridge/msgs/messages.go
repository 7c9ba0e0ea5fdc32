package msgs

import (
	"github.com/golang/protobuf/proto"

	fx "github.com/robotalks/monarco.go/pkg/framework"
)

// Type IDs
const (
	CommandOKTypeID  uint32 = TypeIDKindCommand | TypeIDMaskReply | 0x0001
	CommandErrTypeID uint32 = TypeIDKindCommand | TypeIDMaskReply | 0x0002

	OutputsTypeID         uint32 = TypeIDKindCommand | 0x00010001
	RegisterRequestTypeID uint32 = TypeIDKindCommand | 0x00010002

	InputsTypeID        uint32 = TypeIDKindEvent | 0x00010001
	RegisterStateTypeID uint32 = TypeIDKindEvent | 0x00010002
	FieldbusBlockTypeID uint32 = TypeIDKindEvent | 0x00010003
)

// CommandOK is the generic reply indicating success for commands.
type CommandOK struct {
}

// NewMessage implements Message.
func (m *CommandOK) NewMessage() fx.Message { return &CommandOK{} }

// TypeID implements SerializableMessage.
func (m *CommandOK) TypeID() uint32 { return CommandOKTypeID }

// Serializable implements SerializableMessage.
func (m *CommandOK) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandOK) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandOK) Reset() { *m = CommandOK{} }

// String implements proto.Message.
func (m *CommandOK) String() string { return proto.CompactTextString(m) }

// CommandErr is the generic reply representing command error.
type CommandErr struct {
	Message string `protobuf:"bytes,1,opt,name=message,proto3" json:"message,omitempty"`
}

// NewCommandErr creates a CommandErr from an error.
func NewCommandErr(err error) *CommandErr {
	return &CommandErr{Message: err.Error()}
}

// NewMessage implements Message.
func (m *CommandErr) NewMessage() fx.Message { return &CommandErr{} }

// TypeID implements SerializableMessage.
func (m *CommandErr) TypeID() uint32 { return CommandErrTypeID }

// Serializable implements SerializableMessage.
func (m *CommandErr) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *CommandErr) ProtoMessage() {}

// Reset implements proto.Message.
func (m *CommandErr) Reset() { *m = CommandErr{} }

// String implements proto.Message.
func (m *CommandErr) String() string { return proto.CompactTextString(m) }

// Error implements error.
func (m *CommandErr) Error() string { return m.Message }

// Outputs updates process outputs. Only the channels selected by the masks
// are changed.
type Outputs struct {
	DoutMask uint32 `protobuf:"varint,1,opt,name=dout_mask,proto3" json:"dout_mask,omitempty"`
	Dout     uint32 `protobuf:"varint,2,opt,name=dout,proto3" json:"dout,omitempty"`
	LedMask  uint32 `protobuf:"varint,3,opt,name=led_mask,proto3" json:"led_mask,omitempty"`
	Led      uint32 `protobuf:"varint,4,opt,name=led,proto3" json:"led,omitempty"`
	// AoutMask bit n selects Aout[n].
	AoutMask uint32   `protobuf:"varint,5,opt,name=aout_mask,proto3" json:"aout_mask,omitempty"`
	Aout     []uint32 `protobuf:"varint,6,rep,packed,name=aout,proto3" json:"aout,omitempty"`
	// PwmMask bit 0 selects PWM1, bit 1 selects PWM2.
	PwmMask  uint32   `protobuf:"varint,7,opt,name=pwm_mask,proto3" json:"pwm_mask,omitempty"`
	Pwm1Div  uint32   `protobuf:"varint,8,opt,name=pwm1_div,proto3" json:"pwm1_div,omitempty"`
	Pwm1Duty []uint32 `protobuf:"varint,9,rep,packed,name=pwm1_duty,proto3" json:"pwm1_duty,omitempty"`
	Pwm2Div  uint32   `protobuf:"varint,10,opt,name=pwm2_div,proto3" json:"pwm2_div,omitempty"`
	Pwm2Duty uint32   `protobuf:"varint,11,opt,name=pwm2_duty,proto3" json:"pwm2_duty,omitempty"`
}

// NewMessage implements Message.
func (m *Outputs) NewMessage() fx.Message { return &Outputs{} }

// TypeID implements SerializableMessage.
func (m *Outputs) TypeID() uint32 { return OutputsTypeID }

// Serializable implements SerializableMessage.
func (m *Outputs) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Outputs) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Outputs) Reset() { *m = Outputs{} }

// String implements proto.Message.
func (m *Outputs) String() string { return proto.CompactTextString(m) }

// RegisterRequest reads or writes a service register.
type RegisterRequest struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address,omitempty"`
	Write   bool   `protobuf:"varint,2,opt,name=write,proto3" json:"write,omitempty"`
	Value   uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value,omitempty"`
}

// NewMessage implements Message.
func (m *RegisterRequest) NewMessage() fx.Message { return &RegisterRequest{} }

// TypeID implements SerializableMessage.
func (m *RegisterRequest) TypeID() uint32 { return RegisterRequestTypeID }

// Serializable implements SerializableMessage.
func (m *RegisterRequest) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RegisterRequest) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RegisterRequest) Reset() { *m = RegisterRequest{} }

// String implements proto.Message.
func (m *RegisterRequest) String() string { return proto.CompactTextString(m) }

// Inputs reports process inputs and link statistics.
type Inputs struct {
	Din             uint32   `protobuf:"varint,1,opt,name=din,proto3" json:"din"`
	Counters        []uint32 `protobuf:"varint,2,rep,packed,name=counters,proto3" json:"counters,omitempty"`
	Ain             []uint32 `protobuf:"varint,3,rep,packed,name=ain,proto3" json:"ain,omitempty"`
	Status          uint32   `protobuf:"varint,4,opt,name=status,proto3" json:"status"`
	Cycles          uint64   `protobuf:"varint,5,opt,name=cycles,proto3" json:"cycles"`
	ChecksumErrors  uint64   `protobuf:"varint,6,opt,name=checksum_errors,proto3" json:"checksum_errors,omitempty"`
	TransportErrors uint64   `protobuf:"varint,7,opt,name=transport_errors,proto3" json:"transport_errors,omitempty"`
}

// NewMessage implements Message.
func (m *Inputs) NewMessage() fx.Message { return &Inputs{} }

// TypeID implements SerializableMessage.
func (m *Inputs) TypeID() uint32 { return InputsTypeID }

// Serializable implements SerializableMessage.
func (m *Inputs) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *Inputs) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Inputs) Reset() { *m = Inputs{} }

// String implements proto.Message.
func (m *Inputs) String() string { return proto.CompactTextString(m) }

// RegisterState reports a completed service register transaction.
type RegisterState struct {
	Address uint32 `protobuf:"varint,1,opt,name=address,proto3" json:"address"`
	Write   bool   `protobuf:"varint,2,opt,name=write,proto3" json:"write,omitempty"`
	Value   uint32 `protobuf:"varint,3,opt,name=value,proto3" json:"value"`
	Error   bool   `protobuf:"varint,4,opt,name=error,proto3" json:"error,omitempty"`
}

// NewMessage implements Message.
func (m *RegisterState) NewMessage() fx.Message { return &RegisterState{} }

// TypeID implements SerializableMessage.
func (m *RegisterState) TypeID() uint32 { return RegisterStateTypeID }

// Serializable implements SerializableMessage.
func (m *RegisterState) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *RegisterState) ProtoMessage() {}

// Reset implements proto.Message.
func (m *RegisterState) Reset() { *m = RegisterState{} }

// String implements proto.Message.
func (m *RegisterState) String() string { return proto.CompactTextString(m) }

// FieldbusBlock reports holding registers polled over RS-485.
type FieldbusBlock struct {
	Slave   uint32   `protobuf:"varint,1,opt,name=slave,proto3" json:"slave"`
	Address uint32   `protobuf:"varint,2,opt,name=address,proto3" json:"address"`
	Values  []uint32 `protobuf:"varint,3,rep,packed,name=values,proto3" json:"values,omitempty"`
	Error   string   `protobuf:"bytes,4,opt,name=error,proto3" json:"error,omitempty"`
}

// NewMessage implements Message.
func (m *FieldbusBlock) NewMessage() fx.Message { return &FieldbusBlock{} }

// TypeID implements SerializableMessage.
func (m *FieldbusBlock) TypeID() uint32 { return FieldbusBlockTypeID }

// Serializable implements SerializableMessage.
func (m *FieldbusBlock) Serializable() proto.Message { return m }

// ProtoMessage implements proto.Message.
func (m *FieldbusBlock) ProtoMessage() {}

// Reset implements proto.Message.
func (m *FieldbusBlock) Reset() { *m = FieldbusBlock{} }

// String implements proto.Message.
func (m *FieldbusBlock) String() string { return proto.CompactTextString(m) }

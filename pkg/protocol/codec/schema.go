package codec

import (
	"fmt"
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/descriptorpb"
)

// SchemaPackage is the protobuf package of the wire schema.
const SchemaPackage = "iot.backend.proto"

type (
	fieldType = descriptorpb.FieldDescriptorProto_Type
	msgProto  = descriptorpb.DescriptorProto
	fieldDesc = descriptorpb.FieldDescriptorProto
)

const (
	typeUint32  = descriptorpb.FieldDescriptorProto_TYPE_UINT32
	typeUint64  = descriptorpb.FieldDescriptorProto_TYPE_UINT64
	typeInt32   = descriptorpb.FieldDescriptorProto_TYPE_INT32
	typeString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
	typeBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
	typeFloat   = descriptorpb.FieldDescriptorProto_TYPE_FLOAT
	typeDouble  = descriptorpb.FieldDescriptorProto_TYPE_DOUBLE
	typeMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	typeEnum    = descriptorpb.FieldDescriptorProto_TYPE_ENUM
)

// schemaFile describes packet.proto:
//
//	message Packet {
//	  uint32 version = 1;
//	  uint64 timestamp = 2;
//	  optional uint64 valid_until = 3;
//	  oneof what {
//	    Command command = 10;
//	    CommandResult command_result = 11;
//	    Request request = 12;
//	    Response response = 13;
//	    Telemetry telemetry = 14;
//	    Notification notification = 15;
//	  }
//	}
//
// The remaining messages follow the same layout as the Go model.
func schemaFile() *descriptorpb.FileDescriptorProto {
	paramsField, paramsEntry := mapField("params", 1, "CmdSetParams")
	valuesField, valuesEntry := mapField("params", 1, "CmdParamValues")
	sensorsField, sensorsEntry := mapField("sensors", 8, "TelemetryPayload")

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("iot/backend/proto/packet.proto"),
		Package: proto.String(SchemaPackage),
		Syntax:  proto.String("proto3"),
		EnumType: []*descriptorpb.EnumDescriptorProto{
			enumType("ResultCode", "RESULT_UNSPECIFIED", "RESULT_SUCCESS", "RESULT_FAILED"),
			enumType("ErrorCode", "STATUS_OK", "STATUS_OTHER", "STATUS_TIMEOUT", "STATUS_BUSY",
				"STATUS_NOT_SUPPORTED", "STATUS_INVALID_ARGUMENT"),
		},
		MessageType: []*msgProto{
			message("Packet",
				[]string{"what", "_valid_until"},
				field("version", 1, typeUint32),
				field("timestamp", 2, typeUint64),
				optional(field("valid_until", 3, typeUint64), 1),
				oneofMember(messageField("command", 10, "Command"), 0),
				oneofMember(messageField("command_result", 11, "CommandResult"), 0),
				oneofMember(messageField("request", 12, "Request"), 0),
				oneofMember(messageField("response", 13, "Response"), 0),
				oneofMember(messageField("telemetry", 14, "Telemetry"), 0),
				oneofMember(messageField("notification", 15, "Notification"), 0),
			),
			message("Command", nil,
				field("chain_id", 1, typeString),
				messageField("payload", 2, "CommandPayload"),
			),
			message("CommandPayload",
				[]string{"payload"},
				oneofMember(messageField("configure", 1, "CmdConfigure"), 0),
				oneofMember(messageField("set_state", 2, "CmdSetState"), 0),
				oneofMember(messageField("set_params", 3, "CmdSetParams"), 0),
				oneofMember(messageField("get_params", 4, "CmdGetParams"), 0),
				oneofMember(messageField("ping", 5, "CmdPing"), 0),
			),
			message("CmdConfigure", nil),
			message("CmdSetState", nil, field("state", 1, typeString)),
			withNested(message("CmdSetParams", nil, paramsField), paramsEntry),
			message("CmdGetParams", nil, repeated(field("param", 1, typeString))),
			message("CmdPing", nil),
			withNested(message("CmdParamValues", nil, valuesField), valuesEntry),
			message("CommandResultPayload",
				[]string{"payload"},
				oneofMember(messageField("configure", 1, "CmdConfigure"), 0),
				oneofMember(messageField("set_state", 2, "CmdSetState"), 0),
				oneofMember(messageField("set_params", 3, "CmdSetParams"), 0),
				oneofMember(messageField("get_params", 4, "CmdParamValues"), 0),
				oneofMember(messageField("ping", 5, "CmdPing"), 0),
			),
			message("ErrorDescription",
				[]string{"_status", "_message"},
				optional(enumField("status", 1, "ErrorCode"), 0),
				optional(field("message", 2, typeString), 1),
			),
			message("CommandResult",
				[]string{"_prev_chain_id"},
				field("chain_id", 1, typeString),
				enumField("result", 2, "ResultCode"),
				messageField("error_description", 3, "ErrorDescription"),
				messageField("payload", 4, "CommandResultPayload"),
				optional(field("prev_chain_id", 5, typeString), 0),
				field("cmd_delivery_time", 6, typeInt32),
				field("cmd_execution_time_ms", 7, typeInt32),
			),
			message("Request", nil, field("chain_id", 1, typeString)),
			message("Response", nil,
				field("chain_id", 1, typeString),
				enumField("result", 2, "ResultCode"),
				messageField("error_description", 3, "ErrorDescription"),
			),
			message("Location", nil,
				field("lat", 1, typeDouble),
				field("lon", 2, typeDouble),
			),
			withNested(message("TelemetryPayload",
				[]string{"_battery_level", "_speed_kmh", "_voltage", "_gsm_signal_level", "_charging", "_locked"},
				optional(field("battery_level", 1, typeUint32), 0),
				optional(field("speed_kmh", 2, typeFloat), 1),
				messageField("location", 3, "Location"),
				optional(field("voltage", 4, typeUint32), 2),
				optional(field("gsm_signal_level", 5, typeUint32), 3),
				optional(field("charging", 6, typeBool), 4),
				optional(field("locked", 7, typeBool), 5),
				sensorsField,
			), sensorsEntry),
			message("Telemetry", nil, messageField("payload", 1, "TelemetryPayload")),
			message("Notification", nil, field("message", 1, typeString)),
		},
	}
}

func message(name string, oneofs []string, fields ...*fieldDesc) *msgProto {
	m := &msgProto{Name: proto.String(name), Field: fields}
	for _, o := range oneofs {
		m.OneofDecl = append(m.OneofDecl, &descriptorpb.OneofDescriptorProto{Name: proto.String(o)})
	}
	return m
}

// enumType numbers values from zero in order.
func enumType(name string, values ...string) *descriptorpb.EnumDescriptorProto {
	e := &descriptorpb.EnumDescriptorProto{Name: proto.String(name)}
	for i, v := range values {
		e.Value = append(e.Value, &descriptorpb.EnumValueDescriptorProto{
			Name:   proto.String(v),
			Number: proto.Int32(int32(i)),
		})
	}
	return e
}

func withNested(m *msgProto, nested ...*msgProto) *msgProto {
	m.NestedType = append(m.NestedType, nested...)
	return m
}

func field(name string, number int32, typ fieldType) *fieldDesc {
	return &fieldDesc{
		Name:   proto.String(name),
		Number: proto.Int32(number),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
}

func messageField(name string, number int32, typeName string) *fieldDesc {
	f := field(name, number, typeMessage)
	f.TypeName = proto.String("." + SchemaPackage + "." + typeName)
	return f
}

func enumField(name string, number int32, typeName string) *fieldDesc {
	f := field(name, number, typeEnum)
	f.TypeName = proto.String("." + SchemaPackage + "." + typeName)
	return f
}

func repeated(f *fieldDesc) *fieldDesc {
	f.Label = descriptorpb.FieldDescriptorProto_LABEL_REPEATED.Enum()
	return f
}

func oneofMember(f *fieldDesc, index int32) *fieldDesc {
	f.OneofIndex = proto.Int32(index)
	return f
}

// optional marks f as a proto3 optional field backed by the synthetic
// oneof at index.
func optional(f *fieldDesc, index int32) *fieldDesc {
	f.OneofIndex = proto.Int32(index)
	f.Proto3Optional = proto.Bool(true)
	return f
}

// mapField returns a map<string, string> field of owner and its entry type.
func mapField(name string, number int32, owner string) (*fieldDesc, *msgProto) {
	entryName := strings.ToUpper(name[:1]) + name[1:] + "Entry"
	entry := message(entryName, nil,
		field("key", 1, typeString),
		field("value", 2, typeString),
	)
	entry.Options = &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)}

	f := repeated(messageField(name, number, owner+"."+entryName))
	return f, entry
}

// descriptors caches the linked message and field descriptors.
type descriptors struct {
	file protoreflect.FileDescriptor

	packet, command, commandPayload, commandResult, resultPayload protoreflect.MessageDescriptor
	errorDescription, request, response, telemetry, notification  protoreflect.MessageDescriptor
	telemetryPayload, location                                    protoreflect.MessageDescriptor
	configure, setState, setParams, getParams, ping, paramValues  protoreflect.MessageDescriptor
}

func buildDescriptors() (*descriptors, error) {
	fd, err := protodesc.NewFile(schemaFile(), nil)
	if err != nil {
		return nil, fmt.Errorf("link packet schema: %w", err)
	}

	msgs := fd.Messages()
	d := &descriptors{
		file:             fd,
		packet:           msgs.ByName("Packet"),
		command:          msgs.ByName("Command"),
		commandPayload:   msgs.ByName("CommandPayload"),
		commandResult:    msgs.ByName("CommandResult"),
		resultPayload:    msgs.ByName("CommandResultPayload"),
		errorDescription: msgs.ByName("ErrorDescription"),
		request:          msgs.ByName("Request"),
		response:         msgs.ByName("Response"),
		telemetry:        msgs.ByName("Telemetry"),
		notification:     msgs.ByName("Notification"),
		telemetryPayload: msgs.ByName("TelemetryPayload"),
		location:         msgs.ByName("Location"),
		configure:        msgs.ByName("CmdConfigure"),
		setState:         msgs.ByName("CmdSetState"),
		setParams:        msgs.ByName("CmdSetParams"),
		getParams:        msgs.ByName("CmdGetParams"),
		ping:             msgs.ByName("CmdPing"),
		paramValues:      msgs.ByName("CmdParamValues"),
	}
	return d, nil
}

var schema = mustBuildDescriptors()

func mustBuildDescriptors() *descriptors {
	d, err := buildDescriptors()
	if err != nil {
		panic(err)
	}
	return d
}

// SchemaDescriptor returns the linked descriptor of packet.proto.
func SchemaDescriptor() protoreflect.FileDescriptor {
	return schema.file
}

// fieldOf returns the named field of md. It panics on a name that is not
// part of the schema.
func fieldOf(md protoreflect.MessageDescriptor, name protoreflect.Name) protoreflect.FieldDescriptor {
	fd := md.Fields().ByName(name)
	if fd == nil {
		panic(fmt.Sprintf("codec: %s has no field %q", md.FullName(), name))
	}
	return fd
}

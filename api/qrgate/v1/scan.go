// Package qrgatev1 carries the scan messages kiosks exchange over protobuf.
// The descriptor is built from the same definition as scan.proto, so the
// package needs no generated code.
package qrgatev1

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// File is the qrgate/v1/scan.proto descriptor.
var File protoreflect.FileDescriptor

var (
	scanRequest    protoreflect.MessageDescriptor
	scanResponse   protoreflect.MessageDescriptor
	accessLogEntry protoreflect.MessageDescriptor
)

func init() {
	fd, err := protodesc.NewFile(fileProto(), new(protoregistry.Files))
	if err != nil {
		panic("qrgatev1: build descriptor: " + err.Error())
	}
	File = fd
	scanRequest = fd.Messages().ByName("ScanRequest")
	scanResponse = fd.Messages().ByName("ScanResponse")
	accessLogEntry = fd.Messages().ByName("AccessLogEntry")
}

func NewScanRequest() *dynamicpb.Message { return dynamicpb.NewMessage(scanRequest) }
func NewScanResponse() *dynamicpb.Message { return dynamicpb.NewMessage(scanResponse) }
func NewAccessLogEntry() *dynamicpb.Message { return dynamicpb.NewMessage(accessLogEntry) }

func fileProto() *descriptorpb.FileDescriptorProto {
	const (
		tString  = descriptorpb.FieldDescriptorProto_TYPE_STRING
		tBool    = descriptorpb.FieldDescriptorProto_TYPE_BOOL
		tInt64   = descriptorpb.FieldDescriptorProto_TYPE_INT64
		tMessage = descriptorpb.FieldDescriptorProto_TYPE_MESSAGE
	)

	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String("qrgate/v1/scan.proto"),
		Package: proto.String("qrgate.v1"),
		Syntax:  proto.String("proto3"),
		Options: &descriptorpb.FileOptions{
			GoPackage: proto.String("github.com/BrandonDHaskell/qrgate/api/qrgate/v1;qrgatev1"),
		},
		MessageType: []*descriptorpb.DescriptorProto{
			message("ScanRequest",
				field("code", 1, tString, ""),
			),
			message("AccessLogEntry",
				field("id", 1, tString, ""),
				field("user_id", 2, tString, ""),
				field("user_name", 3, tString, ""),
				field("guard_id", 4, tString, ""),
				field("guard_name", 5, tString, ""),
				field("timestamp_ms", 6, tInt64, ""),
				field("status", 7, tString, ""),
				field("qr_code", 8, tString, ""),
			),
			message("ScanResponse",
				field("success", 1, tBool, ""),
				field("matched_user_id", 2, tString, ""),
				field("matched_user_name", 3, tString, ""),
				field("entry", 4, tMessage, ".qrgate.v1.AccessLogEntry"),
			),
		},
	}
}

func message(name string, fields ...*descriptorpb.FieldDescriptorProto) *descriptorpb.DescriptorProto {
	return &descriptorpb.DescriptorProto{Name: proto.String(name), Field: fields}
}

func field(name string, num int32, typ descriptorpb.FieldDescriptorProto_Type, typeName string) *descriptorpb.FieldDescriptorProto {
	f := &descriptorpb.FieldDescriptorProto{
		Name:   proto.String(name),
		Number: proto.Int32(num),
		Label:  descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
		Type:   typ.Enum(),
	}
	if typeName != "" {
		f.TypeName = proto.String(typeName)
	}
	return f
}

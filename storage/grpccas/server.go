package grpccas

import (
	"context"
	"errors"

	"github.com/ipfs/go-cid"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/storage"
)

// Server exposes a storage.CAS over the CAS gRPC service.
type Server struct {
	UnimplementedCASServer
	CAS    storage.CAS
	Logger logrus.FieldLogger
}

func (s *Server) Put(ctx context.Context, in *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	b := in.GetValue()
	id, err := s.CAS.Put(ctx, b)
	if err != nil {
		return nil, s.mapErr("put", err)
	}
	if !cidutil.Matches(id, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	s.log().WithFields(logrus.Fields{"cid": id.String(), "bytes": len(b)}).Debug("put")
	return wrapperspb.String(id.String()), nil
}

func (s *Server) Get(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	b, err := s.CAS.Get(ctx, id)
	if err != nil {
		return nil, s.mapErr("get", err)
	}
	if !cidutil.Matches(id, b) {
		return nil, status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	}
	return wrapperspb.Bytes(b), nil
}

func (s *Server) Has(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	return wrapperspb.Bool(s.CAS.Has(ctx, id)), nil
}

// Pin pins on backends that support it. Others only need to hold the bytes.
func (s *Server) Pin(ctx context.Context, in *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	if s == nil || s.CAS == nil {
		return nil, status.Error(codes.FailedPrecondition, "missing CAS")
	}
	id, err := decodeCID(in)
	if err != nil {
		return nil, err
	}
	if p, ok := s.CAS.(storage.Pinner); ok {
		if err := p.Pin(ctx, id); err != nil {
			return nil, s.mapErr("pin", err)
		}
	} else if !s.CAS.Has(ctx, id) {
		return nil, status.Error(codes.NotFound, storage.ErrNotFound.Error())
	}
	s.log().WithField("cid", id.String()).Info("pinned")
	return wrapperspb.Bool(true), nil
}

func (s *Server) log() logrus.FieldLogger {
	if s.Logger == nil {
		return logrus.StandardLogger()
	}
	return s.Logger
}

func (s *Server) mapErr(op string, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return status.Error(codes.NotFound, storage.ErrNotFound.Error())
	case errors.Is(err, storage.ErrInvalidCID):
		return status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	case errors.Is(err, storage.ErrCIDMismatch):
		return status.Error(codes.DataLoss, storage.ErrCIDMismatch.Error())
	default:
		s.log().WithError(err).WithField("op", op).Warn("backend failure")
		return status.Error(codes.Internal, err.Error())
	}
}

func decodeCID(in *wrapperspb.StringValue) (cid.Cid, error) {
	id, err := cid.Decode(in.GetValue())
	if err != nil || !id.Defined() {
		return cid.Undef, status.Error(codes.InvalidArgument, storage.ErrInvalidCID.Error())
	}
	return id, nil
}

package grpccas

import (
	"context"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"xdao.co/pixelz/cidutil"
	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casregistry"
	"xdao.co/pixelz/storage/localfs"
	"xdao.co/pixelz/storage/testkit"
)

func newBufconnClient(t *testing.T, backend storage.CAS) *Client {
	t.Helper()
	lis := bufconn.Listen(1024 * 1024)
	srv := grpc.NewServer()
	RegisterCASServer(srv, &Server{CAS: backend})

	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	dialer := func(ctx context.Context, s string) (net.Conn, error) { return lis.Dial() }
	cc, err := grpc.DialContext(
		context.Background(),
		"bufnet",
		grpc.WithContextDialer(dialer),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("DialContext: %v", err)
	}
	client := NewClient(cc)
	client.Timeout = 2 * time.Second
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestGRPCCAS_Conformance(t *testing.T) {
	testkit.RunCASConformance(t, func(t *testing.T) storage.CAS {
		cas, err := localfs.New(t.TempDir())
		if err != nil {
			t.Fatalf("localfs.New: %v", err)
		}
		return newBufconnClient(t, cas)
	})
}

func TestGRPCCAS_Pin(t *testing.T) {
	ctx := context.Background()
	mem := testkit.NewMemory()
	client := newBufconnClient(t, mem)

	id, err := client.Put(ctx, []byte("hello grpccas"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := client.Pin(ctx, id); err != nil {
		t.Fatalf("Pin: %v", err)
	}
	if !mem.Pinned(id) {
		t.Fatalf("expected backend pin")
	}

	missing, _ := cidutil.Sum([]byte("absent"))
	if err := client.Pin(ctx, missing); !storage.IsNotFound(err) {
		t.Fatalf("Pin missing: got %v want ErrNotFound", err)
	}
}

func TestGRPCCAS_PinWithoutPinner(t *testing.T) {
	ctx := context.Background()
	cas, err := localfs.New(t.TempDir())
	if err != nil {
		t.Fatalf("localfs.New: %v", err)
	}
	client := newBufconnClient(t, cas)

	id, err := client.Put(ctx, []byte("kept on disk"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := client.Pin(ctx, id); err != nil {
		t.Fatalf("Pin: %v", err)
	}
}

func TestGRPCCAS_RegistryRequiresTarget(t *testing.T) {
	if _, _, err := casregistry.Open("grpc", casregistry.UsageCLI, nil); err == nil {
		t.Fatalf("expected error without target")
	}
	if _, _, err := casregistry.Open("grpc", casregistry.UsageDaemon, map[string]string{"target": "x"}); err == nil {
		t.Fatalf("grpc backend should not be offered to the daemon")
	}
}

// Command pixelz-casd serves a content store over gRPC so several pixelz
// clients can share one backend (configure them with the "grpc" backend).
package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/pixelz/storage"
	"xdao.co/pixelz/storage/casconfig"
	"xdao.co/pixelz/storage/casregistry"
	"xdao.co/pixelz/storage/grpccas"

	_ "xdao.co/pixelz/storage/ipfs"
	_ "xdao.co/pixelz/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	listen       string
	backend      string
	configPath   string
	settings     map[string]string
	listBackends bool
	logLevel     string
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	logger := logrus.New()
	logger.SetOutput(errOut)

	var o options
	cmd := &cobra.Command{
		Use:           "pixelz-casd",
		Short:         "serve a pixelz content store over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			level, err := logrus.ParseLevel(o.logLevel)
			if err != nil {
				return err
			}
			logger.SetLevel(level)

			if o.listBackends {
				listBackends(out)
				return nil
			}
			cas, closeFn, err := openBackend(o)
			if err != nil {
				return err
			}
			if closeFn != nil {
				defer closeFn()
			}

			lis, err := net.Listen("tcp", o.listen)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), lis, cas, logger)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.listen, "listen", "127.0.0.1:7777", "listen address")
	f.StringVar(&o.backend, "backend", "localfs", "backend name, or the preferred backend id with --config")
	f.StringVar(&o.configPath, "config", "", "storage config file (JSON, same shape as the pixelz \"storage\" section)")
	f.StringToStringVar(&o.settings, "set", nil, "backend setting key=value (e.g. --set dir=./cas)")
	f.BoolVar(&o.listBackends, "list-backends", false, "list supported backends and exit")
	f.StringVar(&o.logLevel, "log-level", "info", "log level")

	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return 1
	}
	return 0
}

func listBackends(w io.Writer) {
	for _, b := range casregistry.List(casregistry.UsageDaemon) {
		if b.Description == "" {
			_, _ = fmt.Fprintf(w, "%s\n", b.Name)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\n", b.Name, b.Description)
	}
}

func openBackend(o options) (storage.CAS, func() error, error) {
	if o.configPath != "" {
		cfg, err := casconfig.LoadFile(o.configPath)
		if err != nil {
			return nil, nil, err
		}
		return cfg.Open(casregistry.UsageDaemon, o.backend)
	}
	return casregistry.Open(o.backend, casregistry.UsageDaemon, o.settings)
}

// serve blocks until ctx is cancelled or the listener fails.
func serve(ctx context.Context, lis net.Listener, cas storage.CAS, logger logrus.FieldLogger) error {
	s := grpc.NewServer()
	grpccas.RegisterCASServer(s, &grpccas.Server{CAS: cas, Logger: logger})

	go func() {
		<-ctx.Done()
		s.GracefulStop()
	}()

	logger.WithField("addr", lis.Addr().String()).Info("pixelz-casd listening")
	if err := s.Serve(lis); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// Package serverrun exposes the Run entrypoint used by the CLI to start the
// gateway: runtime, HTTP and gRPC servers, radio loop, NTP syncer and push
// hub maintenance.
//
// Example:
//
//	cfg := config.Default()
//	cfg.DataDir = "./data"
//	for {
//		err := serverrun.Run(ctx, serverrun.Options{Config: cfg})
//		if !errors.Is(err, serverrun.ErrRestartRequested) {
//			return err
//		}
//	}
package serverrun

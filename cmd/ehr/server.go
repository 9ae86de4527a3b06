package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/GyroTools/ehr-connector-go/internals/mockserver"
)

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the backend is reachable and serves the EHR api",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := a.connector()
			if err != nil {
				return err
			}
			start := time.Now()
			if err := e.Client.CheckConnection(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s is up (%s)\n", e.Client.BaseURL(), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}

func (a *app) mockServerCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory EHR backend for local development",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := mockserver.New(a.logger)

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info().Str("addr", addr).Msg("starting mock server")
				if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			a.logger.Info().Msg("shutting down mock server")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("mock server shutdown: %w", err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8000", "Listen address")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"autoauth/internal/config"
	"autoauth/internal/logs"
	"autoauth/internal/netaddr"
	"autoauth/internal/probe"
	"autoauth/internal/scheduler"
)

var urlCmd = &cobra.Command{
	Use:   "url",
	Short: "Show the detected addresses and the login URL the next cycle would send",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configFile)
		if err != nil {
			return err
		}

		r := scheduler.ResolveAddresses(cfg.Override(), cfg.Interface, netaddr.NewSelector(nil))
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "IPv4: %s\n", r.IPv4)
		fmt.Fprintf(out, "IPv6: %s (编码: %s)\n", r.IPv6, r.IPv6Encoded)
		fmt.Fprintln(out, scheduler.LoginURL(cfg.PortalURL, cfg.Credentials(), r))
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Check internet connectivity once",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configFile)
		if err != nil {
			return err
		}
		result := probe.New(cfg.ProbeURL, cfg.ProbeTimeout).Probe(cmd.Context())
		fmt.Fprintf(cmd.OutOrStdout(), "网络状态: %s\n", result.Label())
		return nil
	},
}

var (
	logsBytes  int64
	logsLines  int
	logsFollow bool
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print the latest log lines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New(configFile)
		if err != nil {
			return err
		}

		sink := logs.NewSink(cfg.LogDir)
		fmt.Fprint(cmd.OutOrStdout(), sink.ReadLatest(logsBytes, logsLines))
		if !logsFollow {
			return nil
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return sink.Follow(ctx, cmd.OutOrStdout())
	},
}

func init() {
	logsCmd.Flags().Int64Var(&logsBytes, "bytes", logs.DefaultMaxBytes, "read at most this many trailing bytes")
	logsCmd.Flags().IntVar(&logsLines, "lines", logs.DefaultMaxLines, "print at most this many lines")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "keep printing new lines")
}

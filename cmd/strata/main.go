package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/marmos91/strata/internal/logger"
	"github.com/marmos91/strata/pkg/config"
	"github.com/marmos91/strata/pkg/dataset"
	"github.com/marmos91/strata/pkg/registry"
)

const usageText = `strata - hierarchical scientific dataset storage

Usage:
  strata [flags] <command> [args]

Commands:
  init                       Write a default config file
  targets                    List configured storage targets
  inspect <target> <file>    Print the hierarchy of a stored file
  copy <src> <dst> <file>    Copy a file from one target to another

Flags:
`

func main() {
	configPath := flag.String("config", "", "Path to config file (default: "+config.GetDefaultConfigPath()+")")
	logLevel := flag.String("log-level", "", "Override configured log level (DEBUG, INFO, WARN, ERROR)")
	force := flag.Bool("force", false, "Overwrite an existing config file (init only)")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usageText)
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// init runs before configuration loading: its whole point is that
	// no config file exists yet.
	if args[0] == "init" {
		path, err := config.InitConfig(*force)
		if err != nil {
			log.Fatalf("Failed to initialize config: %v", err)
		}
		fmt.Printf("Config file written to %s\n", path)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger.SetLevel(cfg.Logging.Level)
	logger.SetFormat(cfg.Logging.Format)
	if *logLevel != "" {
		logger.SetLevel(*logLevel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metricsServer := config.InitializeMetrics(cfg)
	if metricsServer != nil {
		go func() {
			if err := metricsServer.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics server listening on port %d", metricsServer.Port())
	}

	reg, err := config.InitializeRegistry(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage targets: %v", err)
	}

	runErr := run(ctx, reg, args)

	if err := reg.CloseAll(context.Background()); err != nil {
		logger.Error("Failed to close storage targets: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Stop(context.Background()); err != nil {
			logger.Error("Failed to stop metrics server: %v", err)
		}
	}

	if runErr != nil {
		logger.Error("%v", runErr)
		os.Exit(1)
	}
}

func run(ctx context.Context, reg *registry.Registry, args []string) error {
	switch args[0] {
	case "targets":
		return listTargets(reg)

	case "inspect":
		if len(args) != 3 {
			return fmt.Errorf("usage: strata inspect <target> <file>")
		}
		h, err := reg.Get(args[1])
		if err != nil {
			return err
		}
		return inspect(ctx, h, args[2])

	case "copy":
		if len(args) != 4 {
			return fmt.Errorf("usage: strata copy <src> <dst> <file>")
		}
		src, err := reg.Get(args[1])
		if err != nil {
			return err
		}
		dst, err := reg.Get(args[2])
		if err != nil {
			return err
		}
		return copyFile(ctx, src, dst, args[3])

	default:
		return fmt.Errorf("unknown command %q (run 'strata -h' for usage)", args[0])
	}
}

func listTargets(reg *registry.Registry) error {
	for _, name := range reg.List() {
		h, err := reg.Get(name)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s\n", name, h.Mode())
	}
	return nil
}

// submit queues the given tasks and flushes them in one batch.
func submit(ctx context.Context, h *dataset.IOHandler, tasks ...*dataset.IOTask) error {
	for _, t := range tasks {
		if err := h.Enqueue(t); err != nil {
			return err
		}
	}
	return h.Flush(ctx).Err()
}

// inspect prints the full hierarchy of a stored file: groups,
// datasets with their shape, and attributes at every node.
func inspect(ctx context.Context, h *dataset.IOHandler, name string) error {
	file := dataset.NewWritable(nil)
	if err := submit(ctx, h, dataset.OpenFile(file, name)); err != nil {
		return err
	}

	fmt.Printf("%s/\n", name)
	return printNode(ctx, h, file, "  ")
}

func printNode(ctx context.Context, h *dataset.IOHandler, node *dataset.Writable, indent string) error {
	if err := printAttributes(ctx, h, node, indent); err != nil {
		return err
	}

	dsTask, dsSlot := dataset.ListDatasets(node)
	pathTask, pathSlot := dataset.ListPaths(node)
	if err := submit(ctx, h, dsTask, pathTask); err != nil {
		return err
	}

	datasets, _ := dsSlot.Load()
	for _, dsName := range datasets {
		child := dataset.NewWritable(node)
		open, dtypeSlot, extentSlot := dataset.OpenDataset(child, dsName)
		if err := submit(ctx, h, open); err != nil {
			return err
		}
		dtype, _ := dtypeSlot.Load()
		extent, _ := extentSlot.Load()
		fmt.Printf("%s%s  [%s %v]\n", indent, dsName, dtype, extent)

		if err := printAttributes(ctx, h, child, indent+"  "); err != nil {
			return err
		}
	}

	groups, _ := pathSlot.Load()
	for _, groupName := range groups {
		child := dataset.NewWritable(node)
		if err := submit(ctx, h, dataset.OpenPath(child, groupName)); err != nil {
			return err
		}
		fmt.Printf("%s%s/\n", indent, groupName)

		if err := printNode(ctx, h, child, indent+"  "); err != nil {
			return err
		}
	}

	return nil
}

func printAttributes(ctx context.Context, h *dataset.IOHandler, node *dataset.Writable, indent string) error {
	listTask, listSlot := dataset.ListAttributes(node)
	if err := submit(ctx, h, listTask); err != nil {
		return err
	}

	names, _ := listSlot.Load()
	for _, attrName := range names {
		read, slot := dataset.ReadAttribute(node, attrName)
		if err := submit(ctx, h, read); err != nil {
			return err
		}
		att, _ := slot.Load()
		fmt.Printf("%s@%s = %s\n", indent, attrName, att)
	}
	return nil
}

// copyFile replicates a stored file from one target into another:
// the full group hierarchy, every dataset payload, and all
// attributes.
func copyFile(ctx context.Context, src, dst *dataset.IOHandler, name string) error {
	srcRoot := dataset.NewWritable(nil)
	if err := submit(ctx, src, dataset.OpenFile(srcRoot, name)); err != nil {
		return err
	}

	dstRoot := dataset.NewWritable(nil)
	if err := submit(ctx, dst, dataset.CreateFile(dstRoot, name)); err != nil {
		return err
	}

	if err := copyNode(ctx, src, dst, srcRoot, dstRoot); err != nil {
		return err
	}

	logger.Info("Copied file %q", name)
	return nil
}

func copyNode(ctx context.Context, src, dst *dataset.IOHandler, from, to *dataset.Writable) error {
	if err := copyAttributes(ctx, src, dst, from, to); err != nil {
		return err
	}

	dsTask, dsSlot := dataset.ListDatasets(from)
	pathTask, pathSlot := dataset.ListPaths(from)
	if err := submit(ctx, src, dsTask, pathTask); err != nil {
		return err
	}

	datasets, _ := dsSlot.Load()
	for _, dsName := range datasets {
		if err := copyDataset(ctx, src, dst, from, to, dsName); err != nil {
			return err
		}
	}

	groups, _ := pathSlot.Load()
	for _, groupName := range groups {
		fromChild := dataset.NewWritable(from)
		if err := submit(ctx, src, dataset.OpenPath(fromChild, groupName)); err != nil {
			return err
		}

		toChild := dataset.NewWritable(to)
		if err := submit(ctx, dst, dataset.CreatePath(toChild, groupName)); err != nil {
			return err
		}

		if err := copyNode(ctx, src, dst, fromChild, toChild); err != nil {
			return err
		}
	}

	return nil
}

func copyDataset(ctx context.Context, src, dst *dataset.IOHandler, from, to *dataset.Writable, name string) error {
	fromChild := dataset.NewWritable(from)
	open, dtypeSlot, extentSlot := dataset.OpenDataset(fromChild, name)
	if err := submit(ctx, src, open); err != nil {
		return err
	}
	dtype, _ := dtypeSlot.Load()
	extent, _ := extentSlot.Load()

	offset := make(dataset.Offset, len(extent))
	read, dataSlot := dataset.ReadDataset(fromChild, offset, extent)
	if err := submit(ctx, src, read); err != nil {
		return err
	}
	payload, _ := dataSlot.Load()

	toChild := dataset.NewWritable(to)
	if err := submit(ctx, dst,
		dataset.CreateDataset(toChild, name, dtype, extent),
		dataset.WriteDataset(toChild, offset, extent, payload),
	); err != nil {
		return err
	}

	return copyAttributes(ctx, src, dst, fromChild, toChild)
}

func copyAttributes(ctx context.Context, src, dst *dataset.IOHandler, from, to *dataset.Writable) error {
	listTask, listSlot := dataset.ListAttributes(from)
	if err := submit(ctx, src, listTask); err != nil {
		return err
	}

	names, _ := listSlot.Load()
	for _, attrName := range names {
		read, slot := dataset.ReadAttribute(from, attrName)
		if err := submit(ctx, src, read); err != nil {
			return err
		}
		att, _ := slot.Load()

		if err := submit(ctx, dst, dataset.WriteAttribute(to, attrName, att)); err != nil {
			return err
		}
	}
	return nil
}

// Command chunklake-cat dumps the messages of an RRD file to stdout, one
// line per message, for quick inspection of a recording without loading it
// into a full store.
package main

import (
	"fmt"
	"os"

	"github.com/attic-labs/kingpin"
	"go.uber.org/zap"

	"github.com/chunklake/chunklake/rrd"
)

var (
	app = kingpin.New("chunklake-cat", "Inspect the contents of a chunklake RRD file.")

	path = app.Arg("path", "path to the .rrd file").Required().String()

	verbose = app.Flag("verbose", "print each ArrowMsg's payload size").Short('v').Bool()
	waitEOS = app.Flag("tail", "keep watching for more data instead of stopping at EOF").Bool()
)

func main() {
	kingpin.MustParse(app.Parse(os.Args[1:]))

	logger, err := zap.NewProduction()
	if err != nil {
		logger = zap.NewNop()
	}
	defer logger.Sync()

	if err := run(logger, *path, *verbose, *waitEOS); err != nil {
		logger.Fatal("chunklake-cat failed", zap.Error(err))
	}
}

func run(logger *zap.Logger, path string, verbose, waitEOS bool) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	var it *rrd.Iterator
	if waitEOS {
		it = rrd.NewLazyIteratorWaitForEOS(f)
	} else {
		it = rrd.NewLazyIterator(f)
	}

	count := 0
	for {
		msg, err := it.Next()
		if err != nil {
			return fmt.Errorf("decode message %d: %w", count, err)
		}
		if msg == nil {
			break
		}
		printMessage(count, msg, verbose)
		count++
	}

	logger.Info("done",
		zap.Int("messages", count),
		zap.Uint64("bytes_processed", it.NumBytesProcessed()),
	)
	return nil
}

func printMessage(index int, msg *rrd.Message, verbose bool) {
	switch {
	case msg.SetStoreInfo != nil:
		fmt.Printf("%4d  SetStoreInfo   store=%s source=%s\n", index, msg.SetStoreInfo.StoreID, msg.SetStoreInfo.StoreSource)
	case msg.ArrowMsg != nil:
		if verbose {
			fmt.Printf("%4d  ArrowMsg       store=%s bytes=%d\n", index, msg.ArrowMsg.StoreID, len(msg.ArrowMsg.TableBytes))
		} else {
			fmt.Printf("%4d  ArrowMsg       store=%s\n", index, msg.ArrowMsg.StoreID)
		}
	case msg.BlueprintActivationCommand != nil:
		fmt.Printf("%4d  ActivateBlueprint store=%s active=%v default=%v\n",
			index, msg.BlueprintActivationCommand.BlueprintID,
			msg.BlueprintActivationCommand.MakeActive, msg.BlueprintActivationCommand.MakeDefault)
	}
}

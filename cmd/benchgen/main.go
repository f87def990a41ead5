// Command benchgen generates a square of chunk columns around a centre chunk
// and reports per-chunk timing statistics: the work a server does when a
// player first joins or teleports.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/andreypfau/mcrs/worldgen"
	"github.com/andreypfau/mcrs/worldgen/cube"
	"github.com/andreypfau/mcrs/worldgen/mcdb"
	"github.com/andreypfau/mcrs/worldgen/terrain"
)

func main() {
	var (
		seed         = flag.Int64("seed", 0, "world seed")
		centerX      = flag.Int("center-x", 0, "centre chunk X")
		centerZ      = flag.Int("center-z", 0, "centre chunk Z")
		viewDistance = flag.Int("view-distance", 10, "view distance in chunks")
		workers      = flag.Int("workers", 0, "generation goroutines, 0 = one per CPU")
		confPath     = flag.String("config", "", "optional config.toml overriding the flags")
		storeDir     = flag.String("store", "", "optional chunk database directory to persist output")
		surfaceSkip  = flag.Bool("surface-skip", false, "enable the all-air section prediction")
		check        = flag.Bool("check", false, "verify the lazy evaluation path against a full sweep first")
		verbose      = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	conf := worldgen.Config{
		Log:             log,
		Seed:            *seed,
		LazyRangeChoice: true,
		SurfaceSkip:     *surfaceSkip,
		StoneID:         1,
	}
	nWorkers := *workers
	if *confPath != "" {
		uc, err := worldgen.ReadConfig(*confPath)
		if err != nil {
			log.Error("read config", "error", err)
			os.Exit(1)
		}
		conf = uc.Config(log)
		conf.StoneID = 1
		nWorkers = uc.Generation.Workers
	}
	if nWorkers <= 0 {
		nWorkers = runtime.NumCPU()
	}

	start := time.Now()
	gen, err := worldgen.New(conf)
	if err != nil {
		log.Error("compile router", "error", err)
		os.Exit(1)
	}
	column, perBlock, other := gen.Router().ZoneStats()
	log.Info("compiled router", "took", time.Since(start).Round(time.Microsecond),
		"column", column, "per_block", perBlock, "other", other)

	var db *mcdb.DB
	if *storeDir != "" {
		if db, err = (mcdb.Config{Log: log}).Open(*storeDir); err != nil {
			log.Error("open chunk db", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		log.Info("persisting chunks", "dir", *storeDir, "world", db.WorldID().String())
	}

	if *check {
		fullConf := conf
		fullConf.LazyRangeChoice = false
		full, err := worldgen.New(fullConf)
		if err != nil {
			log.Error("compile full-sweep router", "error", err)
			os.Exit(1)
		}
		a, b := gen.NewWorker(), full.NewWorker()
		ca, cb := terrain.NewChunk(), terrain.NewChunk()
		checked := 0
		for dx := int32(-3); dx <= 3; dx++ {
			for dz := int32(-3); dz <= 3; dz++ {
				pos := cube.ChunkPos{int32(*centerX) + dx, int32(*centerZ) + dz}
				a.GenerateChunk(pos, ca)
				b.GenerateChunk(pos, cb)
				if ca.Hash() != cb.Hash() {
					log.Error("lazy/full mismatch", "chunk", pos)
					os.Exit(1)
				}
				checked++
			}
		}
		log.Info("lazy evaluation check passed", "chunks", checked)
	}

	side := 2**viewDistance + 1
	positions := make([]cube.ChunkPos, 0, side*side)
	for dx := -*viewDistance; dx <= *viewDistance; dx++ {
		for dz := -*viewDistance; dz <= *viewDistance; dz++ {
			positions = append(positions, cube.ChunkPos{int32(*centerX + dx), int32(*centerZ + dz)})
		}
	}
	log.Info("generating", "chunks", len(positions), "view_distance", *viewDistance,
		"seed", *seed, "workers", nWorkers)

	var (
		mu         sync.Mutex
		times      = make([]time.Duration, 0, len(positions))
		totalSolid int
		next       int
	)
	wallStart := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < nWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w := gen.NewWorker()
			c := terrain.NewChunk()
			for {
				mu.Lock()
				if next >= len(positions) {
					mu.Unlock()
					return
				}
				pos := positions[next]
				next++
				mu.Unlock()

				t := time.Now()
				w.GenerateChunk(pos, c)
				took := time.Since(t)
				solid := c.Count(1)

				if db != nil {
					if err := db.StoreChunk(pos, c.Blocks()); err != nil {
						log.Error("store chunk", "pos", pos, "error", err)
					}
				}
				mu.Lock()
				times = append(times, took)
				totalSolid += solid
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	wall := time.Since(wallStart)

	sort.Slice(times, func(i, j int) bool { return times[i] < times[j] })
	var sum time.Duration
	for _, t := range times {
		sum += t
	}
	n := len(times)
	fmt.Printf("=== Results (%d chunk columns) ===\n", n)
	fmt.Printf("  Wall time:   %s\n", wall.Round(time.Millisecond))
	fmt.Printf("  Total solid: %d blocks\n", totalSolid)
	fmt.Printf("  Per chunk column:\n")
	fmt.Printf("    Mean:   %s\n", (sum / time.Duration(n)).Round(time.Microsecond))
	fmt.Printf("    Median: %s\n", times[n/2].Round(time.Microsecond))
	fmt.Printf("    Min:    %s\n", times[0].Round(time.Microsecond))
	fmt.Printf("    Max:    %s\n", times[n-1].Round(time.Microsecond))
	fmt.Printf("    P95:    %s\n", times[min(n-1, n*95/100)].Round(time.Microsecond))
	fmt.Printf("  Throughput: %.2f chunk columns/sec\n", float64(n)/wall.Seconds())
}

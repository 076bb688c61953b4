package main

import (
	"flag"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/myuser/astrobase/internal/client"
	"github.com/myuser/astrobase/internal/config"
	"github.com/myuser/astrobase/internal/server"
)

func main() {
	concurrency := flag.Int("concurrency", 10, "Number of concurrent workers")
	duration := flag.Duration("duration", 10*time.Second, "Test duration")
	endpoint := flag.String("endpoint", config.DefaultEndpoint, "Server address")
	keys := flag.Int("keys", 10000, "Key space size")
	useSQL := flag.Bool("sql", false, "Send statements to /execute instead of the CRUD endpoints")
	flag.Parse()

	fmt.Printf("Starting Benchmark: %d workers, %v duration, target %s\n", *concurrency, *duration, *endpoint)

	var ops, rejected, errors int64
	start := time.Now()

	var wg sync.WaitGroup
	ctxDone := make(chan struct{})

	go func() {
		time.Sleep(*duration)
		close(ctxDone)
	}()

	c := client.New(*endpoint)

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(id)))
			for {
				select {
				case <-ctxDone:
					return
				default:
				}

				// Workload: 40% get, 30% insert, 20% update, 10% delete
				key := fmt.Sprintf("user%d", rng.Intn(*keys))
				val := fmt.Sprintf("val%d", rng.Intn(1000))

				out, err := run(c, rng.Float32(), key, val, *useSQL)
				if err != nil {
					n := atomic.AddInt64(&errors, 1)
					if n <= 5 {
						fmt.Printf("Error: %v\n", err)
					}
					continue
				}
				atomic.AddInt64(&ops, 1)
				if !out.OK {
					atomic.AddInt64(&rejected, 1)
				}
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	fmt.Println("Benchmark Finished.")
	fmt.Printf("Total Ops: %d\n", ops)
	fmt.Printf("Record Failures (ok=false): %d\n", rejected)
	fmt.Printf("Errors: %d\n", errors)
	fmt.Printf("Duration: %v\n", elapsed)
	fmt.Printf("RPS: %.2f\n", float64(ops)/elapsed.Seconds())

	if snapshot, err := c.Metrics(); err == nil {
		fmt.Printf("Server counters: %v\n", snapshot)
	}
}

func run(c *client.Client, p float32, key, val string, useSQL bool) (server.Output, error) {
	switch {
	case p < 0.4:
		if useSQL {
			return c.Execute(fmt.Sprintf("SELECT * FROM t WHERE k = '%s'", key))
		}
		return c.Get(key)
	case p < 0.7:
		if useSQL {
			return c.Execute(fmt.Sprintf("INSERT INTO t VALUES ('%s', '%s')", key, val))
		}
		return c.Insert(key, val)
	case p < 0.9:
		if useSQL {
			return c.Execute(fmt.Sprintf("UPDATE t SET v = '%s' WHERE k = '%s'", val, key))
		}
		return c.Update(key, val)
	default:
		if useSQL {
			return c.Execute(fmt.Sprintf("DELETE FROM t WHERE k = '%s'", key))
		}
		return c.Delete(key)
	}
}

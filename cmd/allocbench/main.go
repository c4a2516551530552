// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// allocbench churns a malloc.Allocator through random alloc/realloc/free
// traffic and reports throughput and final heap size.

package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"runtime"
	"time"

	"github.com/patryk-rybak/Malloc"
)

var (
	secs       = time.Tick(time.Second)
	maxHandles = flag.Int("n", 2000, "target number of live allocations")
	maxRequest = flag.Int("max", 1<<14, "largest single allocation in bytes")
	seed       = flag.Int64("seed", 42, "PRNG seed")
	verbose    = flag.Bool("v", false, "log a CheckHeap summary every second")
	rounds     = flag.Int("rounds", 20, "number of churn rounds")
)

func poll(a *malloc.Allocator) {
	select {
	case <-secs:
		if *verbose {
			if err := a.CheckHeap(true); err != nil {
				log.Fatal(err)
			}
		}
	default:
	}
}

func churn(a *malloc.Allocator, rng *rand.Rand) {
	handles := []uintptr{}

	for round := 0; round < *rounds; round++ {
		for len(handles) < *maxHandles {
			n := rng.Intn(*maxRequest) + 1
			p, err := a.Alloc(n)
			if err != nil {
				log.Fatal(err)
			}
			poll(a)
			handles = append(handles, p)
		}

		for nrealloc := len(handles) / 3; nrealloc != 0; nrealloc-- {
			i := rng.Intn(len(handles))
			n := rng.Intn(*maxRequest) + 1
			p, err := a.Realloc(handles[i], n)
			if err != nil {
				log.Fatal(err)
			}
			poll(a)
			handles[i] = p
		}

		for ndel := len(handles) / 4; ndel != 0; ndel-- {
			if len(handles) < 2 {
				break
			}
			i := rng.Intn(len(handles))
			if err := a.Free(handles[i]); err != nil {
				log.Fatal(err)
			}
			poll(a)
			last := len(handles) - 1
			handles[i] = handles[last]
			handles = handles[:last]
		}
	}

	for _, p := range handles {
		if err := a.Free(p); err != nil {
			log.Fatal(err)
		}
	}
}

func main() {
	flag.Parse()

	mem := malloc.NewMemRegion(0)
	a, err := malloc.New(mem)
	if err != nil {
		log.Fatal(err)
	}

	runtime.GC()
	t0 := time.Now()
	rng := rand.New(rand.NewSource(*seed))
	churn(a, rng)
	d := time.Since(t0)

	if err := a.CheckHeap(false); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("n=%d max=%d rounds=%d: break=%#x len=%d time=%s\n",
		*maxHandles, *maxRequest, *rounds, mem.Break(), mem.Len(), d)
}

/*
Package workers provides the background execution context shared by all
scans, together with helpers for sizing worker pools in containerized
environments.

# Pool

Pool runs submitted functions on at most MaxWorkers goroutines. Submit never
blocks: work is appended to an unbounded FIFO queue and a worker is started
on demand. Workers that stay idle for KeepAlive exit, so a quiet process
holds no pool goroutines.

	pool := workers.NewPool(workers.PoolConfig{MaxWorkers: 8})
	defer pool.Close()

	if err := pool.Submit(func() { scanOnce() }); err != nil {
	    // pool closed
	}

# Shared Pool

The scanner uses one process-wide pool. Initialize it explicitly at process
start; otherwise the first call to Shared creates it with defaults:

	workers.InitShared(workers.PoolConfig{MaxWorkers: cfg.ScanWorkers})

The shared pool is never closed; it lives until process exit.

# Sizing

Count, ForCPU and ForIO derive worker counts from GOMAXPROCS, which the Go
runtime (and automaxprocs in the command) sets from the container CPU limit:

	workers.ForCPU(8) // 1 worker per CPU, max 8
	workers.ForIO(16) // 2 workers per CPU, max 16

The SCAN_WORKERS environment variable overrides the computed value (still
capped by the limit). Invalid, zero or negative overrides are ignored.

# Thread Safety

All functions and Pool methods are safe for concurrent use.
*/
package workers

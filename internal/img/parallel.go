// Copyright (C) 2023 Daan de Vries
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package img

import (
	"runtime"
	"sync"
)

// ParallelRows runs f over [0,n) partitioned into contiguous index
// ranges across the worker budget. workers <= 0 means one per CPU.
// Per-pixel stages have no cross-row dependencies, so they partition
// by rows; callers with reductions keep per-range partials and combine
// after this returns.
func ParallelRows(n, workers int, f func(y0, y1 int)) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		f(0, n)
		return
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for y0 := 0; y0 < n; y0 += chunk {
		y1 := y0 + chunk
		if y1 > n {
			y1 = n
		}
		wg.Add(1)
		go func(y0, y1 int) {
			defer wg.Done()
			f(y0, y1)
		}(y0, y1)
	}
	wg.Wait()
}

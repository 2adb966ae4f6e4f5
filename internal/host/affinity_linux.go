// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build linux

package host

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// PinThread locks the calling goroutine to its OS thread and restricts that
// thread to cpu. The returned function restores the previous affinity and
// unlocks the thread. A negative cpu only locks the thread.
func PinThread(cpu int) (unpin func() error, err error) {
	runtime.LockOSThread()
	if cpu < 0 {
		return unlock, nil
	}

	var prev unix.CPUSet
	if err := unix.SchedGetaffinity(0, &prev); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("get affinity: %w", err)
	}
	var set unix.CPUSet
	set.Zero()
	set.Set(cpu)
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("pin to cpu %d: %w", cpu, err)
	}
	return func() error {
		defer runtime.UnlockOSThread()
		if err := unix.SchedSetaffinity(0, &prev); err != nil {
			return fmt.Errorf("restore affinity: %w", err)
		}
		return nil
	}, nil
}

func unlock() error {
	runtime.UnlockOSThread()
	return nil
}

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

package main

import (
	"bufio"
	"io"
	"os"
)

// Log writer that tees stdout into an optional file. Does not add
// prefixes, or force newlines.
type teeWriter struct {
	file   *bufio.Writer
	fileOS *os.File
}

var _ io.Writer = (*teeWriter)(nil)

func newTeeWriter(fileName string) (*teeWriter, error) {
	t := &teeWriter{}
	if fileName != "" {
		f, err := os.OpenFile(fileName, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0666)
		if err != nil {
			return nil, err
		}
		t.fileOS = f
		t.file = bufio.NewWriter(f)
	}
	return t, nil
}

func (t *teeWriter) Write(p []byte) (n int, err error) {
	n, err = os.Stdout.Write(p)
	if err != nil || t.file == nil {
		return n, err
	}
	return t.file.Write(p)
}

func (t *teeWriter) Close() error {
	if t.file == nil {
		return nil
	}
	if err := t.file.Flush(); err != nil {
		return err
	}
	return t.fileOS.Close()
}

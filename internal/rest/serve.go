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

// Package rest serves the analysis pipeline over HTTP.
package rest

import (
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/dvries/texhist/internal/pipeline"
)

// Secures the current process by creating a chroot environment
// (requires root) and changing the user ID to something without
// elevated rights.
func MakeSandbox(chroot string, setuid int) {
	if len(chroot) > 0 {
		fmt.Printf("Changing filesystem root to %s...\n", chroot)
		if err := syscall.Chroot(chroot); err != nil {
			panic(fmt.Sprintf("error chroot(%s): %s\n", chroot, err.Error()))
		}
		if err := os.Chdir(chroot); err != nil {
			panic(fmt.Sprintf("error chdir(%s): %s\n", chroot, err.Error()))
		}
	}
	if setuid >= 0 {
		fmt.Printf("Setting user id from %d/%d to %d\n", syscall.Getuid(), syscall.Geteuid(), setuid)
		if err := syscall.Setuid(setuid); err != nil {
			panic(fmt.Sprintf("error setuid(%d): %s\n", setuid, err.Error()))
		}
	}
}

// Serve APIs via HTTP on the given port.
func Serve(port int64) {
	r := gin.Default()
	api := r.Group("/api")
	{
		v1 := api.Group("/v1")
		{
			v1.GET("/ping", getPing)
			v1.POST("/analyze", postAnalyze)
		}
	}
	r.Run(fmt.Sprintf(":%d", port))
}

func getPing(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// postAnalyze accepts a multipart image upload plus an optional params
// JSON field, runs the pipeline, writes the two histogram files into the
// server's working directory under the upload's base name and streams
// the log back.
func postAnalyze(c *gin.Context) {
	params := pipeline.DefaultParams()
	if raw := c.PostForm("params"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	upload, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer upload.Close()
	src, _, err := image.Decode(upload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	logWriter := c.Writer
	logWriter.Header().Set("Content-Type", "text/plain")
	logWriter.WriteHeader(http.StatusOK)

	rgb, width, height := pipeline.FromImage(src)
	pl := pipeline.New(params, logWriter)
	if err := pl.Run(rgb, width, height); err != nil {
		fmt.Fprintf(logWriter, "Error running pipeline: %s\n", err.Error())
		return
	}

	base := strings.TrimSuffix(fileHeader.Filename, filepath.Ext(fileHeader.Filename))
	if base == "" {
		base = "analysis"
	}
	textonOut := base + ".texton.hist"
	colorOut := base + ".color.hist"
	if err := pl.TextonHist.WriteFile(textonOut); err != nil {
		fmt.Fprintf(logWriter, "Error writing %s: %s\n", textonOut, err.Error())
		return
	}
	if err := pl.ColorHist.WriteFile(colorOut); err != nil {
		fmt.Fprintf(logWriter, "Error writing %s: %s\n", colorOut, err.Error())
		return
	}
	fmt.Fprintf(logWriter, "Wrote %s and %s\n", textonOut, colorOut)

	pl.Release()
	logWriter.(http.Flusher).Flush()
	debug.FreeOSMemory()
}

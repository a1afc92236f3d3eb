// valpkg - valmond release packager
// Copyright (C) 2025 The ALR Authors
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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package packager

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/goreleaser/nfpm/v2"
	_ "github.com/goreleaser/nfpm/v2/deb"
	"github.com/goreleaser/nfpm/v2/files"
	_ "github.com/goreleaser/nfpm/v2/rpm"
	"github.com/leonelquinteros/gotext"
)

// NFPM builds packages in process, without an external packaging tool.
type NFPM struct {
	OutDir string
}

func (n *NFPM) Name() string {
	return "nfpm"
}

func (n *NFPM) Package(ctx context.Context, meta Metadata) error {
	info, err := n.Info(meta)
	if err != nil {
		return err
	}

	packager, err := nfpm.Get(meta.Target.Format)
	if err != nil {
		return err
	}

	pkgName := packager.ConventionalFileName(info)
	pkgPath := filepath.Join(n.OutDir, pkgName)

	pkgFile, err := os.Create(pkgPath)
	if err != nil {
		return err
	}

	slog.Info(gotext.Get("Compressing package"), "name", pkgName)

	if err := packager.Package(info, pkgFile); err != nil {
		pkgFile.Close()
		os.Remove(pkgPath)
		return err
	}
	return pkgFile.Close()
}

// Info converts meta into nfpm's package description.
func (n *NFPM) Info(meta Metadata) (*nfpm.Info, error) {
	contents, err := buildContents(meta.SourceDir)
	if err != nil {
		return nil, err
	}

	info := &nfpm.Info{
		Name:          meta.Name,
		Arch:          meta.Target.Arch,
		Platform:      "linux",
		Epoch:         meta.Epoch,
		Version:       meta.Version,
		VersionSchema: "none",
		Maintainer:    meta.Maintainer,
		Description:   meta.Description,
		Vendor:        meta.Vendor,
		Homepage:      meta.Homepage,
		License:       meta.License,
		Overridables: nfpm.Overridables{
			Depends:   meta.Depends,
			Conflicts: meta.Conflicts,
			Contents:  contents,
			Scripts: nfpm.Scripts{
				PostInstall: meta.Scripts.PostInstall,
				PostRemove:  meta.Scripts.PostUninstall,
				PreRemove:   meta.Scripts.PreUninstall,
			},
		},
	}

	info = nfpm.WithDefaults(info)
	if err := nfpm.Validate(info); err != nil {
		return nil, err
	}
	return info, nil
}

// buildContents lists the staged tree as package contents. Directories are
// listed only when empty, everything under /etc is a config file that an
// upgrade must not overwrite.
func buildContents(root string) ([]*files.Content, error) {
	contents := []*files.Content{}

	err := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		trimmed := strings.TrimPrefix(path, root)
		if trimmed == "" {
			return nil
		}

		if fi.IsDir() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			defer f.Close()

			_, err = f.Readdirnames(1)
			if err != io.EOF {
				return nil
			}

			contents = append(contents, &files.Content{
				Source:      path,
				Destination: trimmed,
				Type:        files.TypeDir,
				FileInfo: &files.ContentFileInfo{
					MTime: fi.ModTime(),
					Mode:  fi.Mode(),
				},
			})
			return nil
		}

		content := &files.Content{
			Source:      path,
			Destination: trimmed,
			FileInfo: &files.ContentFileInfo{
				MTime: fi.ModTime(),
				Mode:  fi.Mode(),
				Size:  fi.Size(),
			},
		}
		if strings.HasPrefix(trimmed, "/etc/") {
			content.Type = files.TypeConfigNoReplace
		}

		contents = append(contents, content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return contents, nil
}

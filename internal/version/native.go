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

package version

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"go.elara.ws/vercmp"
)

const abbrevLen = 7

// Native implements `git describe --always --tags` on top of go-git, for
// build hosts without a git binary.
type Native struct {
	Dir string
}

func (n *Native) Resolve(ctx context.Context) (string, error) {
	r, err := git.PlainOpenWithOptions(n.Dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return "", err
	}

	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("cannot resolve HEAD: %w", err)
	}

	tags, err := tagsByCommit(r)
	if err != nil {
		return "", err
	}

	headAncestors, err := ancestors(ctx, r, head.Hash())
	if err != nil {
		return "", err
	}

	abbrev := head.Hash().String()[:abbrevLen]

	var (
		bestTag   string
		bestDepth = -1
	)
	for hash, name := range tags {
		if _, ok := headAncestors[hash]; !ok {
			continue
		}
		tagAncestors, err := ancestors(ctx, r, hash)
		if err != nil {
			return "", err
		}
		depth := len(headAncestors) - len(tagAncestors)
		if bestDepth == -1 || depth < bestDepth || (depth == bestDepth && vercmp.Compare(name, bestTag) > 0) {
			bestTag, bestDepth = name, depth
		}
	}

	switch {
	case bestDepth == -1:
		return abbrev, nil
	case bestDepth == 0:
		return bestTag, nil
	}
	return fmt.Sprintf("%s-%d-g%s", bestTag, bestDepth, abbrev), nil
}

// tagsByCommit maps each tagged commit to its tag name. Annotated tags are
// peeled to the commit they point at; when a commit carries several tags
// the greatest version wins.
func tagsByCommit(r *git.Repository) (map[plumbing.Hash]string, error) {
	iter, err := r.Tags()
	if err != nil {
		return nil, err
	}

	out := map[plumbing.Hash]string{}
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		tag, err := r.TagObject(hash)
		switch {
		case err == nil:
			c, err := tag.Commit()
			if err != nil {
				// tags of trees or blobs cannot describe a commit
				return nil
			}
			hash = c.Hash
		case !errors.Is(err, plumbing.ErrObjectNotFound):
			return err
		}

		name := ref.Name().Short()
		if prev, ok := out[hash]; !ok || vercmp.Compare(name, prev) > 0 {
			out[hash] = name
		}
		return nil
	})
	return out, err
}

func ancestors(ctx context.Context, r *git.Repository, from plumbing.Hash) (map[plumbing.Hash]struct{}, error) {
	iter, err := r.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	seen := map[plumbing.Hash]struct{}{}
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		seen[c.Hash] = struct{}{}
		return nil
	})
	return seen, err
}

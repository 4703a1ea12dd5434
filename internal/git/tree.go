package git

import (
	"io"
	"sort"
	"strings"

	"emperror.dev/errors"
	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// TreeFile is a non-directory entry of a tree, addressed by its full path.
type TreeFile struct {
	Path string
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// treeFiles flattens tree into its file entries keyed by full path. A nil tree
// (the parent of a root commit) has no files.
func treeFiles(tree *object.Tree) (map[string]TreeFile, error) {
	files := make(map[string]TreeFile)
	if tree == nil {
		return files, nil
	}
	walker := object.NewTreeWalker(tree, true, nil)
	defer walker.Close()
	for {
		name, entry, err := walker.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, WrapVCS(err, "ls-tree")
		}
		if entry.Mode == filemode.Dir || entry.Mode == filemode.Submodule {
			continue
		}
		files[name] = TreeFile{Path: name, Mode: entry.Mode, Hash: entry.Hash}
	}
	return files, nil
}

// FindTreeEntry returns the file at path inside tree.
func FindTreeEntry(tree *object.Tree, path string) (TreeFile, bool) {
	if tree == nil {
		return TreeFile{}, false
	}
	entry, err := tree.FindEntry(path)
	if err != nil || entry.Mode == filemode.Dir {
		return TreeFile{}, false
	}
	return TreeFile{Path: path, Mode: entry.Mode, Hash: entry.Hash}, true
}

// LoadTree returns the root tree of the commit, or nil when commit is nil.
func LoadTree(repo *gogit.Repository, commit *Commit) (*object.Tree, error) {
	if commit == nil {
		return nil, nil
	}
	tree, err := object.GetTree(repo.Storer, commit.TreeHash())
	if err != nil {
		return nil, WrapVCS(err, "read-tree")
	}
	return tree, nil
}

type treeNode struct {
	files map[string]object.TreeEntry
	dirs  map[string]*treeNode
}

func newTreeNode() *treeNode {
	return &treeNode{
		files: make(map[string]object.TreeEntry),
		dirs:  make(map[string]*treeNode),
	}
}

// WriteTree writes the tree objects described by the stage-0 entries of idx
// and returns the id of the root tree, like `git write-tree`.
func WriteTree(repo *gogit.Repository, idx *index.Index) (plumbing.Hash, error) {
	root := newTreeNode()
	for _, e := range idx.Entries {
		if e.Stage != stageNormal {
			return plumbing.ZeroHash, errors.Errorf("cannot write a tree with unmerged path %q", e.Name)
		}
		node := root
		parts := strings.Split(e.Name, "/")
		for _, dir := range parts[:len(parts)-1] {
			child, ok := node.dirs[dir]
			if !ok {
				child = newTreeNode()
				node.dirs[dir] = child
			}
			node = child
		}
		base := parts[len(parts)-1]
		node.files[base] = object.TreeEntry{Name: base, Mode: e.Mode, Hash: e.Hash}
	}
	return writeTreeNode(repo, root)
}

func writeTreeNode(repo *gogit.Repository, node *treeNode) (plumbing.Hash, error) {
	entries := make([]object.TreeEntry, 0, len(node.files)+len(node.dirs))
	for _, entry := range node.files {
		entries = append(entries, entry)
	}
	for name, child := range node.dirs {
		hash, err := writeTreeNode(repo, child)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: hash})
	}
	sort.Sort(object.TreeEntrySorter(entries))

	tree := &object.Tree{Entries: entries}
	obj := repo.Storer.NewEncodedObject()
	if err := tree.Encode(obj); err != nil {
		return plumbing.ZeroHash, WrapVCS(err, "write-tree")
	}
	hash, err := repo.Storer.SetEncodedObject(obj)
	if err != nil {
		return plumbing.ZeroHash, WrapVCS(err, "write-tree")
	}
	return hash, nil
}

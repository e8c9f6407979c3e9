package h5lib

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/robert-malhotra/h5bind/internal/alloc"
	"github.com/robert-malhotra/h5bind/internal/binary"
	"github.com/robert-malhotra/h5bind/internal/h5i"
	"github.com/robert-malhotra/h5bind/internal/heap"
	"github.com/robert-malhotra/h5bind/internal/superblock"
)

// ErrNotHDF5 is returned when a file has no superblock signature.
var ErrNotHDF5 = superblock.ErrNotHDF5

type fileState struct {
	mu       sync.Mutex
	path     string
	f        *os.File
	readOnly bool
	closed   bool

	sb    *superblock.Superblock
	base  int64
	cfg   binary.Config
	r     *binary.Reader
	alloc *alloc.Allocator
	root  *node
	nodes map[uint64]*node
	heaps *lru.Cache[uint64, *heap.Collection]
	log   *zap.Logger

	idMu sync.Mutex
	ids  map[h5i.ID]struct{}
}

func newFileState(path string, f *os.File, readOnly bool, opts Options) (*fileState, error) {
	opts = opts.withDefaults()
	cache, err := lru.New[uint64, *heap.Collection](opts.HeapCacheSize)
	if err != nil {
		return nil, err
	}
	return &fileState{
		path:     path,
		f:        f,
		readOnly: readOnly,
		nodes:    make(map[uint64]*node),
		heaps:    cache,
		log:      opts.Logger.With(zap.String("path", path)),
		ids:      make(map[h5i.ID]struct{}),
	}, nil
}

// FileCreate creates or truncates path and returns a file ID. The new file
// holds an empty root group and is on disk when FileCreate returns.
func FileCreate(path string, opts Options) (h5i.ID, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return h5i.Invalid, err
	}
	fs, err := newFileState(path, f, false, opts)
	if err != nil {
		f.Close()
		return h5i.Invalid, err
	}
	fs.sb = superblock.New()
	fs.cfg = fs.sb.Config()
	fs.r = binary.NewReader(f, fs.cfg)
	fs.alloc = alloc.New(uint64(fs.sb.EncodedSize()))
	fs.root = fs.newGroup(false, false)

	if err := fs.flush(); err != nil {
		f.Close()
		return h5i.Invalid, fmt.Errorf("create %s: %w", path, err)
	}
	fs.log.Debug("file created")
	return reg.Register(h5i.File, fs, releaseFile), nil
}

// FileOpen opens an existing file.
func FileOpen(path string, readOnly bool, opts Options) (h5i.ID, error) {
	flag := os.O_RDWR
	if readOnly {
		flag = os.O_RDONLY
	}
	f, err := os.OpenFile(path, flag, 0)
	if err != nil {
		return h5i.Invalid, err
	}
	fs, err := newFileState(path, f, readOnly, opts)
	if err == nil {
		err = fs.load()
	}
	if err != nil {
		f.Close()
		return h5i.Invalid, fmt.Errorf("open %s: %w", path, err)
	}
	fs.log.Debug("file opened", zap.Bool("read_only", readOnly), zap.Uint8("superblock", fs.sb.Version))
	return reg.Register(h5i.File, fs, releaseFile), nil
}

func (fs *fileState) load() error {
	sb, err := superblock.Read(fs.f)
	if err != nil {
		return err
	}
	fs.sb = sb
	fs.cfg = sb.Config()
	// Stored addresses are relative to where the superblock sits.
	fs.base = sb.Location
	fs.r = binary.NewReader(io.NewSectionReader(fs.f, fs.base, math.MaxInt64-fs.base), fs.cfg)

	eof := sb.EOFAddress
	if st, err := fs.f.Stat(); err == nil && uint64(st.Size()-fs.base) > eof {
		eof = uint64(st.Size() - fs.base)
	}
	fs.alloc = alloc.New(eof)

	root, err := fs.node(sb.RootAddress)
	if err != nil {
		return fmt.Errorf("root group: %w", err)
	}
	if root.kind != kindGroup {
		return fmt.Errorf("root object: %w", ErrNotGroup)
	}
	fs.root = root
	return nil
}

// IsHDF5 reports whether path carries a superblock signature.
func IsHDF5(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	if _, err := superblock.Find(f); err != nil {
		if errors.Is(err, superblock.ErrNotHDF5) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func fileObject(id h5i.ID) (*fileState, error) {
	obj, err := reg.Object(id, h5i.File)
	if err != nil {
		return nil, err
	}
	fs := obj.(*fileState)
	if fs.closed {
		return nil, ErrClosed
	}
	return fs, nil
}

// FileFlush writes pending changes of the file that id belongs to.
func FileFlush(id h5i.ID) error {
	ref, err := nodeLocation(id)
	if err != nil {
		return err
	}
	fs := ref.file
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.flush()
}

// FileClose drops one reference to a file ID. The last reference flushes the
// file, invalidates every object ID opened in it and closes it.
func FileClose(id h5i.ID) error {
	if t := reg.TypeOf(id); t != h5i.File {
		return fmt.Errorf("%w: %d is not a file", ErrInvalidID, id)
	}
	_, err := reg.DecRef(id)
	return err
}

// FilePath returns the path a file ID was opened with.
func FilePath(id h5i.ID) (string, error) {
	fs, err := fileObject(id)
	if err != nil {
		return "", err
	}
	return fs.path, nil
}

// FileIsReadOnly reports the access mode of a file ID.
func FileIsReadOnly(id h5i.ID) (bool, error) {
	fs, err := fileObject(id)
	if err != nil {
		return false, err
	}
	return fs.readOnly, nil
}

func releaseFile(obj any) error {
	return obj.(*fileState).close()
}

func (fs *fileState) close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.closed {
		return nil
	}
	flushErr := fs.flush()

	fs.idMu.Lock()
	for id := range fs.ids {
		reg.Invalidate(id)
	}
	fs.ids = map[h5i.ID]struct{}{}
	fs.idMu.Unlock()

	fs.closed = true
	closeErr := fs.f.Close()
	fs.log.Debug("file closed")
	if flushErr != nil {
		return fmt.Errorf("flush %s: %w", fs.path, flushErr)
	}
	return closeErr
}

func (fs *fileState) writeAt(addr uint64, b []byte) error {
	_, err := fs.f.WriteAt(b, fs.base+int64(addr))
	return err
}

// check guards every operation on an open file.
func (fs *fileState) check(write bool) error {
	if fs.closed {
		return ErrClosed
	}
	if write && fs.readOnly {
		return ErrReadOnly
	}
	return nil
}

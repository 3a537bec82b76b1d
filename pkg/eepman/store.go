// Package eepman is the public library entry point for the replicated
// EEPROM configuration store: Open/Options construct a Store, whose
// methods are the engine's only public surface (spec.md §4.7). Everything
// under pkg/ besides this package is a supporting library composed here,
// mirroring the teacher's pkg/slotcache / pkg/mddb split: small,
// independently testable packages wired together by one façade.
package eepman

import (
	"fmt"
	"sync"

	"github.com/eepman/eepman/pkg/eepconf"
	"github.com/eepman/eepman/pkg/eepdigest"
	"github.com/eepman/eepman/pkg/eepjson"
	"github.com/eepman/eepman/pkg/footer"
	"github.com/eepman/eepman/pkg/fs"
	"github.com/eepman/eepman/pkg/lockmgr"
	"github.com/eepman/eepman/pkg/quorum"
	"github.com/eepman/eepman/pkg/repair"
	"github.com/eepman/eepman/pkg/replica"
)

// SetFlags modifies Set's behaviour.
type SetFlags int

// NoCreate mirrors the CLI's `-n` flag / spec.md §4.7's NO_CREATE flag:
// Set fails rather than create a new key.
const NoCreate SetFlags = 1 << iota

// VerifyOutcome is the result of Store.Verify, per spec.md §4.7.
type VerifyOutcome int

const (
	// VerifyAuthoritativeUnverifiable is reserved: spec.md §9's first open
	// question. Under this implementation's documented flow, Open already
	// guarantees an authoritative replica exists before any other
	// operation runs, so no code path in this package ever returns this
	// value; it is defined (rather than omitted) so callers that switch
	// exhaustively on VerifyOutcome compile against the full, specified
	// range. See DESIGN.md.
	VerifyAuthoritativeUnverifiable VerifyOutcome = 0
	// VerifyAllPassed means every replica's digest verified on the first
	// check.
	VerifyAllPassed VerifyOutcome = 1
	// VerifyRepaired means at least one replica failed its first check but
	// all were successfully repaired.
	VerifyRepaired VerifyOutcome = 2
)

// ReplicaInfo is a read-only snapshot of one pool member, returned by
// Store.Info. Authoritative is additive over spec.md §4.7's named fields
// (SPEC_FULL.md §13): it lets a caller see which replica is currently
// trusted without a second call.
type ReplicaInfo struct {
	Path          string
	BlockSize     int
	BlockCount    int
	TotalBytes    int
	Authoritative bool
}

// Store is a single engine instance over one replica pool. All exported
// methods are safe to call from multiple goroutines: every operation after
// Open serialises on mu, matching spec.md §5's single process-wide mutex.
type Store struct {
	mu sync.Mutex

	fsys   fs.FS
	pool   []*replica.Descriptor
	auth   *replica.Descriptor
	opened bool
}

// Open constructs a Store by loading the replica pool configuration and
// running initialisation (spec.md §4.7's initialise()): acquire locks on
// every replica, run quorum selection, repair any divergent replica, then
// release locks. The constructor shape here is Go's usual "constructor
// does the one-time setup" idiom rather than a separate initialise() call
// a caller might forget; there is no already-opened Store to reuse, so
// every call to Open builds a new Store and runs initialisation again.
//
// If quorum selection fails (e.g. all replicas blank, scenario 1 in spec.md
// §8), Open returns a non-nil Store whose pool is populated but whose
// authoritative replica is unset, alongside a *Error wrapping
// ErrNoGoodDevices, so a caller can still call Clear to bring the pool up
// (spec.md §8 scenario 1: "initialise() returns NO_GOOD_DEVICES... clear()
// writes {} to both. Subsequent initialise() succeeds").
func Open(opts ...Option) (*Store, error) {
	o := Options{ConfigPath: eepconf.DefaultPath, FS: fs.NewReal()}
	for _, opt := range opts {
		opt(&o)
	}

	entries, _, err := eepconf.Load(o.FS, o.ConfigPath)
	if err != nil {
		return nil, newError(KindErrno, fmt.Errorf("eepman: load config: %w", err))
	}

	pool, _, err := eepconf.BuildPool(entries)
	if err != nil {
		return nil, newError(KindErrno, fmt.Errorf("eepman: build pool: %w", err))
	}

	s := &Store{fsys: o.FS, pool: pool}

	if err := s.runInitialise(); err != nil {
		// The pool is retained even on failure (spec.md §4.7: "failure at
		// any step releases any resources acquired" — resources, not the
		// pool itself) so Clear can still be used to bring up blank
		// devices.
		return s, err
	}

	s.opened = true
	return s, nil
}

// runInitialise performs one lock/select/repair/unlock cycle. Called by
// Open.
func (s *Store) runInitialise() error {
	if err := lockmgr.AcquireAll(s.fsys, s.pool); err != nil {
		return newError(KindErrno, err)
	}
	defer lockmgr.ReleaseAll(s.pool)

	auth, err := quorum.Select(s.pool)
	if err != nil {
		return classify(err)
	}

	if err := repair.Run(s.pool, auth); err != nil {
		return newError(KindErrno, err)
	}

	s.auth = auth
	s.opened = true
	return nil
}

// withPool acquires the process mutex, locks every replica for the
// duration of fn, and releases both afterward, matching spec.md §5's
// "process-wide mutex... then acquires advisory locks on every replica for
// the duration of an operation".
func (s *Store) withPool(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := lockmgr.AcquireAll(s.fsys, s.pool); err != nil {
		return newError(KindErrno, err)
	}
	defer lockmgr.ReleaseAll(s.pool)

	return fn()
}

// document parses the authoritative replica's cached buffer as a JSON
// object (spec.md §4.7's get/set/remove all start here).
func (s *Store) document() (*eepjson.Object, error) {
	if s.auth == nil {
		return nil, newError(KindNoGoodDevices, quorumNoAuthoritative)
	}
	obj, err := eepjson.Parse(s.auth.Buf())
	if err != nil {
		return nil, classify(err)
	}
	return obj, nil
}

// quorumNoAuthoritative is the underlying cause wrapped by a
// KindNoGoodDevices *Error raised when an operation runs against a Store
// that has no authoritative replica (Open failed, or the caller never
// checked Open's error).
var quorumNoAuthoritative = fmt.Errorf("eepman: no authoritative replica is selected")

// writeAll serialises obj, checks it against pool capacity, replaces the
// authoritative buffer, writes the authoritative replica first, then
// clones the result to every other replica (spec.md §4.7: "writes all
// replicas (authoritative first, then clones to the rest)").
//
// The authoritative replica's buffer is replaced wholesale only once
// WriteDocument succeeds (spec.md §5: "the previous allocation is freed"
// only when the write actually lands); on failure the previous cached
// buffer, digest, and counter are restored so the in-memory Store still
// reflects the last successfully written state.
func (s *Store) writeAll(obj *eepjson.Object) error {
	data, err := obj.Emit()
	if err != nil {
		return classify(err)
	}

	if capacity := eepconf.Capacity(s.pool); len(data) > capacity {
		return newError(KindWriteJSONTooLong, fmt.Errorf("%w: %d bytes exceeds pool capacity %d", replica.ErrDocumentTooLarge, len(data), capacity))
	}

	prevBuf, prevDigest, prevCounter := s.auth.Buf(), s.auth.Digest, s.auth.Counter

	s.auth.SetBuf(data)
	if err := replica.WriteDocument(s.auth); err != nil {
		s.auth.SetBuf(prevBuf)
		s.auth.Digest = prevDigest
		s.auth.Counter = prevCounter
		return classify(err)
	}

	if err := repair.Run(s.pool, s.auth); err != nil {
		return newError(KindErrno, err)
	}

	return nil
}

// Get fetches key from the authoritative document, copying at most maxLen
// bytes of its value (spec.md §4.7's get(key, out_buf, len)); a negative
// maxLen returns the whole value. Fails with ErrKeyNotFound if key is
// absent, and with ErrKeyNotString if the stored document holds any
// non-string value: eepjson.Parse rejects the whole document in that case,
// whichever key was asked for.
func (s *Store) Get(key string, maxLen int) (string, error) {
	var out string
	err := s.withPool(func() error {
		obj, err := s.document()
		if err != nil {
			return err
		}

		v, ok := obj.Get(key)
		if !ok {
			return ErrKeyNotFound
		}

		if maxLen >= 0 && len(v) > maxLen {
			v = v[:maxLen]
		}
		out = v
		return nil
	})
	return out, err
}

// Set inserts or replaces key → value in the document and writes it to
// every replica (spec.md §4.7's set). A nil/empty value is stored as the
// empty string. If flags includes NoCreate, Set fails with ErrKeyNotFound
// when key is not already present.
func (s *Store) Set(key, value string, flags SetFlags) error {
	return s.withPool(func() error {
		obj, err := s.document()
		if err != nil {
			return err
		}

		if flags&NoCreate != 0 {
			if _, ok := obj.Get(key); !ok {
				return ErrKeyNotFound
			}
		}

		obj.Set(key, value)
		return s.writeAll(obj)
	})
}

// Remove deletes key from the document, if present, and writes the result
// to every replica (spec.md §4.7's remove). Removing an absent key is not
// an error; the document is simply rewritten unchanged, which is a no-op
// write per P4.
func (s *Store) Remove(key string) error {
	return s.withPool(func() error {
		obj, err := s.document()
		if err != nil {
			return err
		}

		obj.Delete(key)
		return s.writeAll(obj)
	})
}

// Keys returns an order-undefined enumeration of the document's current
// keys (spec.md §4.7's keys()/free_keys(), collapsed into the single
// return Go's garbage collector makes the separate free_keys()
// unnecessary for).
func (s *Store) Keys() ([]string, error) {
	var keys []string
	err := s.withPool(func() error {
		obj, err := s.document()
		if err != nil {
			return err
		}
		keys = obj.Keys()
		return nil
	})
	return keys, err
}

// Clear replaces the document with the empty object `{}` on every replica,
// in pool order, and makes pool[0] the authoritative replica directly
// (spec.md §4.7: "after clear, authoritative replica = first pool
// entry"); no quorum selection is run. Clear is also how a pool of blank, never-initialised devices is
// brought up (spec.md §8 scenario 1): it does not require s.auth to be set
// first.
func (s *Store) Clear() error {
	return s.withPool(func() error {
		empty := eepjson.New()
		data, err := empty.Emit()
		if err != nil {
			return classify(err)
		}

		for i, d := range s.pool {
			d.SetBuf(data)
			err := replica.WriteDocument(d)
			if err != nil {
				d.ClearBuf()
				return newError(KindErrno, fmt.Errorf("eepman: clear %s: %w", d.Path, err))
			}
			if i == 0 {
				// pool[0] becomes authoritative and keeps its cached
				// buffer; every other replica's buffer is transient.
				s.auth = d
			} else {
				d.ClearBuf()
			}
		}

		s.opened = true
		return nil
	})
}

// Verify checks every non-authoritative replica's digest against its
// content, repairing any mismatch from the authoritative replica (spec.md
// §4.7's verify()). A replica only passes if its footer is valid, its
// counter matches the authoritative's, and its stored digest matches its
// content's recomputed SHA-256 — a footer that merely agrees with the
// authoritative's cached Counter/Digest fields is not enough, since the
// document bytes themselves could have rotted without touching the footer
// (mirroring quorum.Select's own content-digest recomputation). It returns
// VerifyAllPassed if every replica already matched, or VerifyRepaired if at
// least one needed repair — repair.Run's contract guarantees that a replica
// either ends up matching or the whole operation fails, so Verify never
// itself returns the reserved VerifyAuthoritativeUnverifiable (see its doc
// comment).
func (s *Store) Verify() (VerifyOutcome, error) {
	var outcome VerifyOutcome
	err := s.withPool(func() error {
		if s.auth == nil {
			return newError(KindNoGoodDevices, quorumNoAuthoritative)
		}

		allPassed := true
		for _, d := range s.pool {
			if d == s.auth {
				continue
			}

			ft, err := footer.Read(d.Handle(), d.BlockSize)
			if err != nil {
				return newError(KindErrno, err)
			}

			matches := ft.Kind == footer.KindValid &&
				ft.Counter == s.auth.Counter &&
				ft.DigestHex == s.auth.Digest
			if matches {
				doc, err := replica.ReadDocument(d)
				if err != nil {
					return newError(KindErrno, err)
				}
				matches = eepdigest.SHA256Hex(doc) == ft.DigestHex
			}
			if !matches {
				allPassed = false
			}
		}

		if allPassed {
			outcome = VerifyAllPassed
			return nil
		}

		if err := repair.Run(s.pool, s.auth); err != nil {
			return newError(KindChecksumFailed, err)
		}

		outcome = VerifyRepaired
		return nil
	})
	return outcome, err
}

// Info returns a read-only, configuration-ordered snapshot of the pool
// (spec.md §4.7's info()), without acquiring any device lock — it reads
// only the in-memory descriptors, not device content.
func (s *Store) Info() []ReplicaInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ReplicaInfo, len(s.pool))
	for i, d := range s.pool {
		out[i] = ReplicaInfo{
			Path:          d.Path,
			BlockSize:     d.BlockSize,
			BlockCount:    d.BlockCount,
			TotalBytes:    d.BlockSize * d.BlockCount,
			Authoritative: d == s.auth,
		}
	}
	return out
}

// Capacity returns the pool-wide effective document capacity C (spec.md
// §3).
func (s *Store) Capacity() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return eepconf.Capacity(s.pool)
}

// Shutdown drops the pool (spec.md §4.7's shutdown(): "drops the pool,
// destroys the process mutex"). After Shutdown, the Store must not be used
// again; Go's garbage collector reclaims the mutex itself, so Shutdown's
// only job is to release the Store's references to its descriptors.
func (s *Store) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pool = nil
	s.auth = nil
	s.opened = false
}

package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/haierkeys/note-registry-service/internal/dao/memstore"
	"github.com/haierkeys/note-registry-service/internal/domain"
	"github.com/haierkeys/note-registry-service/pkg/code"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

var identities = []domain.Identity{"alice", "bob", "carol"}

type registryOp struct {
	create bool
	caller domain.Identity
	to     domain.Identity
	id     domain.NoteID
}

func (o registryOp) String() string {
	if o.create {
		return fmt.Sprintf("create(%s)", o.caller)
	}
	return fmt.Sprintf("transfer(%s->%s, %d)", o.caller, o.to, o.id)
}

func genRegistryOp() gopter.Gen {
	return gopter.CombineGens(
		gen.Bool(),
		gen.IntRange(0, len(identities)-1),
		gen.IntRange(0, len(identities)-1),
		gen.IntRange(0, 12),
	).Map(func(v []interface{}) registryOp {
		return registryOp{
			create: v[0].(bool),
			caller: identities[v[1].(int)],
			to:     identities[v[2].(int)],
			id:     domain.NoteID(v[3].(int)),
		}
	})
}

type modelNote struct {
	owner   domain.Identity
	payload string
}

// 随机操作序列下, 注册表与简单模型保持一致
func TestProperty_RegistryMatchesModel(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("ids are unique and every id has exactly one owner", prop.ForAll(
		func(ops []registryOp) bool {
			ctx := context.Background()
			store := memstore.New()
			svc := NewRegistryService(store, nil, nil, nil, nil)

			model := map[domain.NoteID]modelNote{}
			var next domain.NoteID

			for i, op := range ops {
				if op.create {
					payload := fmt.Sprintf("p%d", i)
					id, _, err := svc.Create(ctx, op.caller, []byte(payload))
					if err != nil || id != next {
						t.Logf("%s: id=%d err=%v, want id %d", op, id, err, next)
						return false
					}
					if _, dup := model[id]; dup {
						t.Logf("%s: id %d reissued", op, id)
						return false
					}
					model[id] = modelNote{owner: op.caller, payload: payload}
					next++
					continue
				}

				events, err := svc.Transfer(ctx, op.caller, op.to, op.id)
				cur, exists := model[op.id]
				owned := exists && cur.owner == op.caller
				switch {
				case !owned:
					if !errors.Is(err, code.ErrorInvalidNoteID) {
						t.Logf("%s: want InvalidNoteId, got %v", op, err)
						return false
					}
				case op.caller == op.to:
					if err != nil || len(events) != 0 {
						t.Logf("%s: self transfer err=%v events=%d", op, err, len(events))
						return false
					}
				default:
					if err != nil || len(events) != 1 {
						t.Logf("%s: err=%v events=%d", op, err, len(events))
						return false
					}
					model[op.id] = modelNote{owner: op.to, payload: cur.payload}
				}
			}

			snap, err := store.Snapshot(ctx)
			if err != nil {
				return false
			}
			if snap.NextID != next || len(snap.Notes) != len(model) {
				t.Logf("snapshot mismatch: next=%d/%d notes=%d/%d", snap.NextID, next, len(snap.Notes), len(model))
				return false
			}
			seen := map[domain.NoteID]bool{}
			for _, n := range snap.Notes {
				if seen[n.ID] {
					t.Logf("id %d stored under two owners", n.ID)
					return false
				}
				seen[n.ID] = true
				m := model[n.ID]
				if m.owner != n.Owner || m.payload != string(n.Note) {
					t.Logf("id %d: got (%s,%q) want (%s,%q)", n.ID, n.Owner, n.Note, m.owner, m.payload)
					return false
				}
			}
			return true
		},
		gen.SliceOf(genRegistryOp()),
	))

	properties.TestingRun(t)
}

// 不存在的 (owner, id) 转移失败且不改变任何状态
func TestProperty_InvalidTransferLeavesStateUnchanged(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	properties.Property("transfer of a missing pair is rejected without effects", prop.ForAll(
		func(creates int, callerIdx, toIdx int, id uint32) bool {
			ctx := context.Background()
			store := memstore.New()
			svc := NewRegistryService(store, nil, nil, nil, nil)

			// every note belongs to alice, so bob and carol never own anything
			for i := 0; i < creates; i++ {
				if _, _, err := svc.Create(ctx, identities[0], []byte{byte(i)}); err != nil {
					return false
				}
			}
			caller := identities[1+callerIdx]
			before, _ := store.Snapshot(ctx)

			_, err := svc.Transfer(ctx, caller, identities[toIdx], domain.NoteID(id))
			after, _ := store.Snapshot(ctx)

			return errors.Is(err, code.ErrorInvalidNoteID) &&
				before.NextID == after.NextID &&
				len(before.Notes) == len(after.Notes) &&
				before.LastEventSeq == after.LastEventSeq
		},
		gen.IntRange(0, 8),
		gen.IntRange(0, 1),
		gen.IntRange(0, 2),
		gen.UInt32(),
	))

	properties.TestingRun(t)
}

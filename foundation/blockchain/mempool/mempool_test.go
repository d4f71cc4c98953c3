package mempool_test

import (
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/forkline/blockchain/foundation/blockchain/database"
	"github.com/forkline/blockchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func signTx(t *testing.T, pkHexKey string, nonce uint64, tip uint64) database.BlockTx {
	t.Helper()

	privateKey, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to parse the private key: %s", err)
	}

	userTx, err := database.NewUserTx(1, nonce, "0xF01813E4B85e178A83e29B8E7bF26BD830a25f32", 100, tip, nil)
	if err != nil {
		t.Fatalf("Should be able to construct a transaction: %s", err)
	}

	signedTx, err := userTx.Sign(privateKey)
	if err != nil {
		t.Fatalf("Should be able to sign the transaction: %s", err)
	}

	return database.NewBlockTx(signedTx, uint64(time.Now().UTC().Unix()))
}

// =============================================================================

func Test_CRUD(t *testing.T) {
	const pk1 = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	const pk2 = "aed31b6b5a341af8f27e66fb0b7633cf20fc27049e3eb7f6f623a4655b719ebb"

	t.Log("Given the need to manage the pool of pending transactions.")
	{
		mp := mempool.New()

		tx1 := signTx(t, pk1, 0, 10)
		tx2 := signTx(t, pk2, 0, 50)

		t.Logf("\tTest 0:\tWhen upserting and deleting transactions.")
		{
			if _, err := mp.Upsert(tx1); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to upsert a transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to upsert a transaction.", success)

			if _, err := mp.Upsert(tx2); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to upsert a second transaction: %v", failed, err)
			}
			t.Logf("\t%s\tTest 0:\tShould be able to upsert a second transaction.", success)

			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have two transactions in the pool: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould have two transactions in the pool.", success)

			// Same account and nonce replaces, it doesn't grow the pool.
			if _, err := mp.Upsert(signTx(t, pk1, 0, 25)); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to replace a transaction: %v", failed, err)
			}
			if mp.Count() != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould still have two transactions: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould replace on matching account and nonce.", success)

			if err := mp.Delete(tx2); err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould be able to delete a transaction: %v", failed, err)
			}
			if mp.Count() != 1 {
				t.Fatalf("\t%s\tTest 0:\tShould have one transaction left: got %d", failed, mp.Count())
			}
			t.Logf("\t%s\tTest 0:\tShould be able to delete a transaction.", success)

			mp.Truncate()
			if mp.Count() != 0 {
				t.Fatalf("\t%s\tTest 0:\tShould have an empty pool after truncate.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould have an empty pool after truncate.", success)
		}
	}
}

func Test_PickBest(t *testing.T) {
	const pk1 = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	const pk2 = "aed31b6b5a341af8f27e66fb0b7633cf20fc27049e3eb7f6f623a4655b719ebb"
	const pk3 = "9f332e3700d8fc2446eaf6d15034cf96e0c2745e40353deef032a5dbf1dfed93"

	t.Log("Given the need to pick the best paying transactions.")
	{
		mp := mempool.New()

		mp.Upsert(signTx(t, pk1, 0, 10))
		mp.Upsert(signTx(t, pk2, 0, 75))
		mp.Upsert(signTx(t, pk3, 0, 50))

		t.Logf("\tTest 0:\tWhen asking for fewer transactions than are pooled.")
		{
			best := mp.PickBest(2)

			if len(best) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould get two transactions: got %d", failed, len(best))
			}
			t.Logf("\t%s\tTest 0:\tShould get two transactions.", success)

			if best[0].Tip != 75 || best[1].Tip != 50 {
				t.Fatalf("\t%s\tTest 0:\tShould get the highest tips first: got %d, %d", failed, best[0].Tip, best[1].Tip)
			}
			t.Logf("\t%s\tTest 0:\tShould get the highest tips first.", success)
		}

		t.Logf("\tTest 1:\tWhen asking for the entire pool.")
		{
			all := mp.PickBest(-1)

			if len(all) != 3 {
				t.Fatalf("\t%s\tTest 1:\tShould get every transaction: got %d", failed, len(all))
			}
			t.Logf("\t%s\tTest 1:\tShould get every transaction.", success)
		}
	}
}

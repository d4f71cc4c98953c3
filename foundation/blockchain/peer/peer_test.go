package peer_test

import (
	"testing"

	"github.com/forkline/blockchain/foundation/blockchain/peer"
)

// Success and failure markers.
const (
	success = "✓"
	failed  = "✗"
)

// =============================================================================

func Test_PeerSet(t *testing.T) {
	t.Log("Given the need to manage the set of known peers.")
	{
		ps := peer.NewPeerSet()

		t.Logf("\tTest 0:\tWhen adding and removing peers.")
		{
			if !ps.Add(peer.New("0.0.0.0:9080")) {
				t.Fatalf("\t%s\tTest 0:\tShould report a new peer as added.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report a new peer as added.", success)

			if ps.Add(peer.New("0.0.0.0:9080")) {
				t.Fatalf("\t%s\tTest 0:\tShould report a known peer as not added.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould report a known peer as not added.", success)

			ps.Add(peer.New("0.0.0.0:9180"))
			ps.Add(peer.New("0.0.0.0:9280"))

			peers := ps.Copy("0.0.0.0:9080")
			if len(peers) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould copy the set minus the local host: got %d", failed, len(peers))
			}
			t.Logf("\t%s\tTest 0:\tShould copy the set minus the local host.", success)

			ps.Remove(peer.New("0.0.0.0:9180"))

			peers = ps.Copy("")
			if len(peers) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould have two peers after a removal: got %d", failed, len(peers))
			}
			t.Logf("\t%s\tTest 0:\tShould have two peers after a removal.", success)
		}
	}
}

func Test_Match(t *testing.T) {
	t.Log("Given the need to recognize the local host in a peer list.")
	{
		pr := peer.New("0.0.0.0:9080")

		t.Logf("\tTest 0:\tWhen comparing hosts.")
		{
			if !pr.Match("0.0.0.0:9080") {
				t.Fatalf("\t%s\tTest 0:\tShould match the same host.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould match the same host.", success)

			if pr.Match("0.0.0.0:9180") {
				t.Fatalf("\t%s\tTest 0:\tShould not match a different host.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould not match a different host.", success)
		}
	}
}

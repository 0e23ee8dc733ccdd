package websocket

import "testing"

func newHubClient(id, channel string) *Client {
	return &Client{ID: id, Channel: channel, Send: make(chan []byte, 4)}
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub()
	a := newHubClient("a", "1v1")
	b := newHubClient("b", "1v1")
	c := newHubClient("c", "2v2")
	for _, cl := range []*Client{a, b, c} {
		hub.Add(cl)
	}

	hub.Broadcast("1v1", []byte("hello"))

	for _, cl := range []*Client{a, b} {
		select {
		case msg := <-cl.Send:
			if string(msg) != "hello" {
				t.Errorf("client %s got %q", cl.ID, msg)
			}
		default:
			t.Errorf("client %s got nothing", cl.ID)
		}
	}
	select {
	case msg := <-c.Send:
		t.Errorf("client on another channel got %q", msg)
	default:
	}
}

func TestHubSendToPlayer(t *testing.T) {
	hub := NewHub()
	a := newHubClient("a", "1v1")
	hub.Add(a)

	if !hub.SendToPlayer("a", []byte("direct")) {
		t.Fatal("SendToPlayer = false for a connected player")
	}
	if got := string(<-a.Send); got != "direct" {
		t.Fatalf("got %q", got)
	}
	if hub.SendToPlayer("ghost", []byte("direct")) {
		t.Fatal("SendToPlayer = true for an unknown player")
	}
}

func TestHubRemove(t *testing.T) {
	hub := NewHub()
	a := newHubClient("a", "1v1")
	hub.Add(a)
	hub.Remove(a)

	if hub.SendToPlayer("a", []byte("x")) {
		t.Fatal("removed client is still reachable")
	}
	if _, ok := <-a.Send; ok {
		t.Fatal("send channel was not closed on remove")
	}
	// Removing twice is harmless.
	hub.Remove(a)
}

func TestHubReconnectReplacesClient(t *testing.T) {
	hub := NewHub()
	old := newHubClient("a", "1v1")
	hub.Add(old)

	replacement := newHubClient("a", "2v2")
	hub.Add(replacement)

	if _, ok := <-old.Send; ok {
		t.Fatal("stale client's send channel was not closed")
	}

	hub.Broadcast("2v2", []byte("hello"))
	select {
	case msg := <-replacement.Send:
		if string(msg) != "hello" {
			t.Fatalf("got %q", msg)
		}
	default:
		t.Fatal("replacement client got nothing")
	}

	// Removing the stale handle must not detach the replacement.
	hub.Remove(old)
	if !hub.SendToPlayer("a", []byte("still here")) {
		t.Fatal("replacement client was detached by the stale remove")
	}
}

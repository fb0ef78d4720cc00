package plex

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/plexpatrol/plexpatrol/internal/domain/session"
	"github.com/plexpatrol/plexpatrol/internal/shared/constants"
	"github.com/plexpatrol/plexpatrol/internal/shared/goroutine"
	"github.com/plexpatrol/plexpatrol/internal/shared/logger"
)

// node is a schemaless XML element. The session listing nests its elements
// differently across server versions, so lookups walk the tree.
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []node     `xml:",any"`
}

func (n *node) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) attrOr(name, fallback string) string {
	if v, ok := n.attr(name); ok && v != "" {
		return v
	}
	return fallback
}

// find returns the first descendant named name, depth first.
func (n *node) find(name string) *node {
	for i := range n.Children {
		child := &n.Children[i]
		if child.XMLName.Local == name {
			return child
		}
		if found := child.find(name); found != nil {
			return found
		}
	}
	return nil
}

// findAll collects every descendant named name in document order.
func (n *node) findAll(name string, out []*node) []*node {
	for i := range n.Children {
		child := &n.Children[i]
		if child.XMLName.Local == name {
			out = append(out, child)
		}
		out = child.findAll(name, out)
	}
	return out
}

func decode(payload []byte) (*node, error) {
	var root node
	dec := xml.NewDecoder(bytes.NewReader(payload))
	dec.Strict = true
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return &root, nil
}

// ParseSessions turns a session listing into records grouped by user id.
// Video entries without a session id or player are skipped; an entry that
// fails for any other reason is logged and skipped. Only an unparsable
// document fails the whole batch.
func ParseSessions(payload []byte, log logger.Interface) (session.Snapshot, error) {
	snapshot := session.Snapshot{}

	root, err := decode(payload)
	if err != nil {
		return snapshot, err
	}

	for i, video := range root.findAll("Video", nil) {
		var (
			rec  session.Record
			keep bool
		)
		panicked := goroutine.Run(log, "parse-video", func() {
			rec, keep = parseVideo(video, log)
		})
		if panicked {
			log.Warnw("skipping malformed video entry", "index", i)
			continue
		}
		if keep {
			snapshot.Add(rec)
		}
	}
	return snapshot, nil
}

func parseVideo(video *node, log logger.Interface) (session.Record, bool) {
	sessionElem := video.find("Session")
	if sessionElem == nil {
		log.Debugw("skipping video without session", "title", video.attrOr("title", ""))
		return session.Record{}, false
	}
	sessionID, _ := sessionElem.attr("id")
	if sessionID == "" {
		log.Debugw("skipping video with empty session id", "title", video.attrOr("title", ""))
		return session.Record{}, false
	}

	player := video.find("Player")
	if player == nil {
		log.Debugw("skipping video without player", "session_id", sessionID)
		return session.Record{}, false
	}

	userID, username := constants.UnknownUserID, constants.UnknownValue
	if u := video.find("User"); u != nil {
		userID = u.attrOr("id", constants.UnknownUserID)
		username = u.attrOr("title", constants.UnknownValue)
	}

	return session.Record{
		SessionID:      sessionID,
		UserID:         userID,
		Username:       username,
		MediaTitle:     mediaTitle(video),
		LibrarySection: video.attrOr("librarySectionTitle", constants.UnknownValue),
		IPAddress:      player.attrOr("address", constants.UnknownValue),
		MachineID:      player.attrOr("machineIdentifier", constants.UnknownValue),
		Platform:       player.attrOr("platform", constants.UnknownValue),
		Product:        player.attrOr("product", constants.UnknownValue),
		Device:         player.attrOr("device", constants.UnknownValue),
		State:          session.ParseState(player.attrOr("state", string(session.StateUnknown))),
	}, true
}

// mediaTitle composes "show - season - episode", "show - title" or "title".
func mediaTitle(video *node) string {
	title := video.attrOr("title", "")
	show := video.attrOr("grandparentTitle", "")
	season := video.attrOr("parentTitle", "")

	switch {
	case show != "" && season != "":
		return show + " - " + season + " - " + title
	case show != "":
		return show + " - " + title
	default:
		return title
	}
}

// ParseAccounts reads the /accounts listing into id -> name.
func ParseAccounts(payload []byte) (map[string]string, error) {
	root, err := decode(payload)
	if err != nil {
		return nil, err
	}

	accounts := make(map[string]string)
	candidates := root.findAll("Account", nil)
	if root.XMLName.Local == "Account" {
		candidates = append(candidates, root)
	}
	for _, acc := range candidates {
		id, _ := acc.attr("id")
		if id == "" {
			continue
		}
		accounts[id] = acc.attrOr("name", constants.UnknownValue)
	}
	return accounts, nil
}

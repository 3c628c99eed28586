package heartbeat

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client talks to the real aggregator over HTTP.
type Client struct {
	baseURL string
	uuid    string
	http    *http.Client

	// post marshals a function back onto the control loop; onUpdate is
	// invoked there with each well-formed heartbeat response.
	post     func(func())
	onUpdate func(Update)
}

// NewClient creates a Client for the given aggregator root and node
// identity. post must hand the function to the control loop; onUpdate
// receives parsed heartbeat responses there.
func NewClient(baseURL, uuid string, post func(func()), onUpdate func(Update)) *Client {
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		uuid:     uuid,
		http:     &http.Client{},
		post:     post,
		onUpdate: onUpdate,
	}
}

// heartbeatBody is the aggregator's heartbeat response. donated is
// required; nRecruits is optional.
type heartbeatBody struct {
	Donated   string `json:"donated"`
	NRecruits *int   `json:"nRecruits"`
}

// ReportActive sends a heartbeat. The response is parsed and, when
// well-formed, handed to onUpdate on the control loop. Anything else is
// logged and discarded; no retry.
func (c *Client) ReportActive(includeIdentity bool) {
	u := c.baseURL + "/heartbeat"
	if includeIdentity {
		u += "?uuid=" + url.QueryEscape(c.uuid)
	}

	go func() {
		resp, err := c.http.Get(u)
		if err != nil {
			log.Printf("heartbeat: %v", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			log.Printf("heartbeat: status %d", resp.StatusCode)
			return
		}

		var body heartbeatBody
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			log.Printf("heartbeat: parse response: %v", err)
			return
		}
		if body.Donated == "" {
			log.Printf("heartbeat: response missing donated total")
			return
		}

		update := Update{Donated: body.Donated}
		if body.NRecruits != nil {
			update.Recruits = *body.NRecruits
			update.HasRecruits = true
		}

		c.post(func() { c.onUpdate(update) })
	}()
}

// ReportInactive sends an unheartbeat. The response is ignored.
func (c *Client) ReportInactive() {
	u := c.baseURL + "/unheartbeat?uuid=" + url.QueryEscape(c.uuid)
	go c.fireAndForget(u, "unheartbeat")
}

// SubmitDonation records a donation vote. The response is ignored.
func (c *Client) SubmitDonation(charityID string, amount int) {
	q := url.Values{}
	q.Set("charity", charityID)
	q.Set("votes", strconv.Itoa(amount))
	u := c.baseURL + "/vote?" + q.Encode()
	go c.fireAndForget(u, "vote")
}

func (c *Client) fireAndForget(u, what string) {
	resp, err := c.http.Get(u)
	if err != nil {
		log.Printf("%s: %v", what, err)
		return
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

package features

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/jonwraymond/ems/api"
	"github.com/jonwraymond/ems/auth"
)

// Election is one contest.
type Election struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Type    string `json:"type,omitempty"`
	Date    string `json:"date,omitempty"`
	Status  string `json:"status,omitempty"`
	StateID string `json:"stateId,omitempty"`
}

// Coverage summarises how many polling units have reported.
type Coverage struct {
	ElectionID           string  `json:"electionId"`
	PollingUnitsTotal    int     `json:"pollingUnitsTotal"`
	PollingUnitsReported int     `json:"pollingUnitsReported"`
	Percent              float64 `json:"percent"`
}

// Aspirant is a candidate standing in an election.
type Aspirant struct {
	ID         string `json:"id,omitempty"`
	ElectionID string `json:"electionId"`
	Name       string `json:"name"`
	Party      string `json:"party"`
	PhotoURL   string `json:"photoUrl,omitempty"`
}

// AspirantInput creates an aspirant with an optional photo.
type AspirantInput struct {
	ElectionID string  `json:"electionId"`
	Name       string  `json:"name"`
	Party      string  `json:"party"`
	Photo      *Upload `json:"-"`
}

// Discriminant keys the run by its fields and the photo digest.
func (in AspirantInput) Discriminant() any {
	return map[string]any{
		"electionId": in.ElectionID,
		"name":       in.Name,
		"party":      in.Party,
		"photo":      in.Photo.Discriminant(),
	}
}

// State, LGA, Ward and PollingUnit form the geographic hierarchy.
type State struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
	Code string `json:"code,omitempty"`
}

type LGA struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Code    string `json:"code,omitempty"`
	StateID string `json:"stateId"`
}

type Ward struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Code  string `json:"code,omitempty"`
	LGAID string `json:"lgaId"`
}

type PollingUnit struct {
	ID               string `json:"id,omitempty"`
	Name             string `json:"name"`
	Code             string `json:"code,omitempty"`
	WardID           string `json:"wardId"`
	RegisteredVoters int    `json:"registeredVoters,omitempty"`
}

// PartyScore is the vote count of one party.
type PartyScore struct {
	Party string `json:"party"`
	Votes int    `json:"votes"`
}

// Result is a tally entered at one level of the hierarchy.
type Result struct {
	ID               string       `json:"id,omitempty"`
	ElectionID       string       `json:"electionId"`
	Level            auth.Level   `json:"level"`
	LocationID       string       `json:"locationId"`
	Scores           []PartyScore `json:"scores"`
	AccreditedVoters int          `json:"accreditedVoters,omitempty"`
	RejectedVotes    int          `json:"rejectedVotes,omitempty"`
	SubmittedBy      string       `json:"submittedBy,omitempty"`
	SubmittedAt      time.Time    `json:"submittedAt,omitzero"`
}

// ResultSubmission enters a tally for one location.
type ResultSubmission struct {
	ElectionID       string       `json:"electionId"`
	Level            auth.Level   `json:"level"`
	LocationID       string       `json:"locationId"`
	Scores           []PartyScore `json:"scores"`
	AccreditedVoters int          `json:"accreditedVoters,omitempty"`
	RejectedVotes    int          `json:"rejectedVotes,omitempty"`
}

// Result queries by level.
type PollingUnitResultsQuery struct {
	ElectionID    string `json:"electionId"`
	PollingUnitID string `json:"pollingUnitId"`
}

type WardResultsQuery struct {
	ElectionID string `json:"electionId"`
	WardID     string `json:"wardId"`
}

type LGAResultsQuery struct {
	ElectionID string `json:"electionId"`
	LGAID      string `json:"lgaId"`
}

type StateResultsQuery struct {
	ElectionID string `json:"electionId"`
	StateID    string `json:"stateId"`
}

// Presence records an agent at a polling unit.
type Presence struct {
	ID            string    `json:"id,omitempty"`
	ElectionID    string    `json:"electionId"`
	PollingUnitID string    `json:"pollingUnitId"`
	AgentID       string    `json:"agentId,omitempty"`
	Present       bool      `json:"present"`
	MarkedAt      time.Time `json:"markedAt,omitzero"`
}

// PresenceMark marks the current agent present.
type PresenceMark struct {
	ElectionID    string   `json:"electionId"`
	PollingUnitID string   `json:"pollingUnitId"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

// Report is an incident or situation report.
type Report struct {
	ID         string    `json:"id,omitempty"`
	ElectionID string    `json:"electionId"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Category   string    `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitzero"`
}

// ReportInput creates a report.
type ReportInput struct {
	ElectionID string `json:"electionId"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Category   string `json:"category,omitempty"`
}

// ResultSheet is a scanned result sheet of a polling unit.
type ResultSheet struct {
	ID            string    `json:"id,omitempty"`
	ElectionID    string    `json:"electionId"`
	PollingUnitID string    `json:"pollingUnitId"`
	URL           string    `json:"url"`
	UploadedAt    time.Time `json:"uploadedAt,omitzero"`
}

// ResultSheetQuery lists the sheets of one polling unit.
type ResultSheetQuery struct {
	ElectionID    string `json:"electionId"`
	PollingUnitID string `json:"pollingUnitId"`
}

// ResultSheetUpload uploads a sheet image.
type ResultSheetUpload struct {
	ElectionID    string
	PollingUnitID string
	Sheet         Upload
}

// Discriminant keys the run by location and file digest.
func (u ResultSheetUpload) Discriminant() any {
	return map[string]any{
		"electionId":    u.ElectionID,
		"pollingUnitId": u.PollingUnitID,
		"sheet":         u.Sheet.Discriminant(),
	}
}

// VotingStatus reports whether the current user may still vote.
type VotingStatus struct {
	ElectionID string `json:"electionId"`
	Open       bool   `json:"open"`
	HasVoted   bool   `json:"hasVoted"`
}

// VoteInput casts a vote.
type VoteInput struct {
	ElectionID string `json:"electionId"`
	AspirantID string `json:"aspirantId"`
}

// Vote is a recorded vote.
type Vote struct {
	ID         string    `json:"id,omitempty"`
	ElectionID string    `json:"electionId"`
	AspirantID string    `json:"aspirantId"`
	CastAt     time.Time `json:"castAt,omitzero"`
}

// User is a dashboard account.
type User struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       auth.Role `json:"role"`
	LocationID string    `json:"locationId,omitempty"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
}

// UserInput creates an account. The password never reaches a cache key.
type UserInput struct {
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Role       auth.Role `json:"role"`
	LocationID string    `json:"locationId,omitempty"`
	Password   string    `json:"password,omitempty"`
}

// Upload is a file picked for upload.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Discriminant identifies the file by name, size and content digest.
// A nil upload yields nil.
func (u *Upload) Discriminant() any {
	if u == nil {
		return nil
	}
	sum := sha256.Sum256(u.Data)
	return map[string]any{
		"name":   u.Name,
		"size":   len(u.Data),
		"sha256": hex.EncodeToString(sum[:]),
	}
}

func (u *Upload) file(field string) api.File {
	return api.File{Field: field, Name: u.Name, ContentType: u.ContentType, Data: u.Data}
}

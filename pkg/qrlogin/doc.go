// Package qrlogin implements the desktop side of scan-to-login.
//
// An Initiator obtains a LoginSession (id plus rendered image) from the
// user-center, a poll.Poller drives it with ClassifyCheck until it is
// confirmed, and an Adopter turns the confirmed credential into the
// application Session. Flow wires the three together for a UI and enforces
// that at most one attempt is live at a time.
package qrlogin

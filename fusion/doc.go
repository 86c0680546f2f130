// Package fusion talks to the Fusion 360 add-in REST server on the local
// machine. It provides the add-in client with its result normalization, a
// background host-status monitor and the tool catalog the bridge serves.
package fusion

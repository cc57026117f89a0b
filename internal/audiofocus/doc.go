// Package audiofocus tracks audio focus for a player: whether it may play,
// must pause for a while, or may keep playing at reduced volume.
package audiofocus

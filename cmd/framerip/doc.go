// Command framerip captures still frames from video files by driving an
// external media player, either through its scene filter or by grabbing the
// desktop while the player renders to screen.
package main

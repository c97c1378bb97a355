// Package mayaframe reads the animation and playback frame range of Maya
// ASCII scenes from their playbackOptions command.
package mayaframe

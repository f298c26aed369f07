package qr

var SaveFile = saveFile

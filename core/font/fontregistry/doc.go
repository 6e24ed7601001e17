/*
Package fontregistry manages a registry for loaded fonts and resolves
CSS font properties to concrete font faces.

License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © 2023–2026 Emasoft
*/
package fontregistry
